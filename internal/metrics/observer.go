package metrics

import "picture-frame/internal/filesystem"

type filesystemObserver struct{}

// NewFilesystemObserver returns a filesystem.Observer that feeds the
// Filesystem* collectors.
func NewFilesystemObserver() filesystem.Observer {
	return filesystemObserver{}
}

func (filesystemObserver) ObserveRetry(ev filesystem.RetryEvent) {
	switch ev.Kind {
	case filesystem.RetryStale:
		FilesystemStaleErrors.WithLabelValues(ev.Op, ev.Volume).Inc()
	case filesystem.RetryAttempt:
		FilesystemRetryAttempts.WithLabelValues(ev.Op, ev.Volume).Inc()
	case filesystem.RetryRecovered:
		FilesystemRetrySuccess.WithLabelValues(ev.Op, ev.Volume).Inc()
	case filesystem.RetryExhausted:
		FilesystemRetryFailures.WithLabelValues(ev.Op, ev.Volume).Inc()
	case filesystem.RetryFinished:
		FilesystemRetryDuration.WithLabelValues(ev.Op, ev.Volume).Observe(ev.Elapsed.Seconds())
	}
}
