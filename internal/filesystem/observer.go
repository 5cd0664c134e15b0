package filesystem

import "time"

// RetryKind identifies a step of a retried operation.
type RetryKind int

const (
	// RetryStale is reported for every ESTALE error.
	RetryStale RetryKind = iota
	// RetryAttempt is reported before sleeping and trying again.
	RetryAttempt
	// RetryRecovered is reported when a retry succeeds.
	RetryRecovered
	// RetryExhausted is reported when the retry budget is spent.
	RetryExhausted
	// RetryFinished closes every operation that saw at least one ESTALE;
	// Elapsed holds its total duration.
	RetryFinished
)

// RetryEvent describes one step of a retried operation.
type RetryEvent struct {
	Op      string // "stat" or "open"
	Volume  string
	Kind    RetryKind
	Elapsed time.Duration
}

// Observer receives retry events. The metrics package implements it so
// filesystem does not import metrics.
type Observer interface {
	ObserveRetry(RetryEvent)
}

var defaultObserver Observer

// SetObserver installs the package-level observer. Nil disables reporting.
func SetObserver(o Observer) {
	defaultObserver = o
}

func report(ev RetryEvent) {
	if o := defaultObserver; o != nil {
		o.ObserveRetry(ev)
	}
}
