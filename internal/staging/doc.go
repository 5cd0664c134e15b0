/*
Package staging keeps a small, always-full queue of library files copied to
local storage and ready to display.

# Lifecycle of a population attempt

	EMPTY -> CACHING -> STAGED | REJECTED | FAILED

An attempt picks a random candidate that is neither staged nor already being
staged, copies it from the media directory to the same relative path under
the cache directory, and classifies the copy's orientation. The orientation
is always recorded through the MetadataRecorder. Files the Policy refuses
are deleted and permanently removed from the candidate set. Copy and
classification errors leave the candidate in place for a later attempt.

# Concurrency

A fixed pool of workers drains a bounded request channel. Fill submits one
request per missing slot and never blocks; requests that do not fit are
dropped and the next Fill catches up. A single mutex guards the candidate
set, the staged queue and the in-flight set. Slow I/O runs outside it.

# Ownership of served files

Get hands the oldest staged path to the caller, who serves the cached copy
and then calls Release to delete it. Clean deletes every staged copy;
candidates are not affected.
*/
package staging
