/*
Package filesystem provides resilient filesystem operations for media
libraries mounted over NFS.

# Purpose

Photo libraries frequently live on a NAS. Opening a file on an NFS mount can
fail with ESTALE (stale file handle) after server-side changes; this package
retries those errors with exponential backoff and passes every other error
through unchanged.

# Usage

	info, err := filesystem.StatWithRetry("/media/2019/beach.jpg", filesystem.DefaultRetryConfig())

	// Copy a library file into the staging cache
	err := filesystem.CopyFile(
	    filepath.Join(mediaDir, rel),
	    filepath.Join(cacheDir, rel),
	    filesystem.DefaultRetryConfig(),
	)

	// Delete a cached file and prune directories it leaves empty
	err := filesystem.RemoveFile(filepath.Join(cacheDir, rel), cacheDir)

# Retry Behavior

Defaults: 3 retries, 50ms initial backoff doubling up to 500ms. Only ESTALE
triggers a retry.

# Metrics

Retries are reported through the Observer interface. The metrics package
provides the Prometheus implementation; main installs it with SetObserver.
Without an observer, recording is skipped.
*/
package filesystem
