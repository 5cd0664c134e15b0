// Package library builds the candidate set of displayable media.
//
// A Walker lists supported media files under the library root in parallel,
// skipping hidden entries and empty files. Filter then drops files the
// metadata store has marked excluded and files whose recorded orientation
// the display policy refuses. The Indexer runs this build once at startup
// and again on a cron schedule (for example "@every 6h" or "0 3 * * *"),
// handing each result to the staging cache.
package library
