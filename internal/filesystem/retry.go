package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"picture-frame/internal/logging"
)

// RetryConfig configures retries of operations that hit stale NFS handles.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver labels metrics for this config. Nil uses the default
	// set with SetDefaultVolumeResolver.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig returns 3 retries starting at 50ms, capped at 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c RetryConfig) volume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// isNFSStaleError reports whether err wraps ESTALE.
func isNFSStaleError(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// withRetry calls fn until it succeeds, fails with anything other than
// ESTALE, or MaxRetries retries have been spent.
func withRetry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	ev := RetryEvent{Op: op, Volume: config.volume(path)}
	start := time.Now()
	stale := false
	defer func() {
		if stale {
			ev.Kind = RetryFinished
			ev.Elapsed = time.Since(start)
			report(ev)
		}
	}()

	backoff := config.InitialBackoff
	for attempt := 0; ; attempt++ {
		result, err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s of %s succeeded on retry %d", op, path, attempt)
				ev.Kind = RetryRecovered
				report(ev)
			}
			return result, nil
		}
		if !isNFSStaleError(err) {
			var zero T
			return zero, err
		}

		stale = true
		ev.Kind = RetryStale
		report(ev)

		if attempt >= config.MaxRetries {
			logging.Warn("NFS %s of %s failed after %d retries: %v", op, path, config.MaxRetries, err)
			ev.Kind = RetryExhausted
			report(ev)
			var zero T
			return zero, err
		}

		ev.Kind = RetryAttempt
		report(ev)
		logging.Debug("Stale file handle on %s of %s, retry %d/%d in %v", op, path, attempt+1, config.MaxRetries, backoff)
		time.Sleep(backoff)
		backoff = min(2*backoff, config.MaxBackoff)
	}
}

// StatWithRetry is os.Stat retried on stale NFS handles.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// OpenWithRetry is os.Open retried on stale NFS handles.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}
