package metadata

import (
	"context"
	"maps"
	"sync"
	"time"

	"picture-frame/internal/logging"
	"picture-frame/internal/metrics"
)

// DefaultInterval is how often the background writer checks for changes.
const DefaultInterval = time.Second

// Well-known record keys.
const (
	KeyLandscape = "landscape"
	KeyExclude   = "exclude"
)

// Record is the flat attribute map stored for one media path. Values are
// JSON scalars: bool, string, number or nil.
type Record map[string]any

func (r Record) clone() Record {
	return maps.Clone(r)
}

// Store holds per-path metadata in memory and persists the whole map through
// a Backend whenever it has changed. Reads and writes never touch the
// backend; only the background writer, Flush and Close do.
type Store struct {
	backend  Backend
	interval time.Duration

	mu      sync.Mutex
	records map[string]Record
	dirty   bool

	// saveMu serializes snapshots with their writes so an older snapshot
	// can never overwrite a newer one.
	saveMu sync.Mutex

	stopChan  chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
	closeErr  error
}

// New creates a Store backed by backend. A non-positive interval selects
// DefaultInterval.
func New(backend Backend, interval time.Duration) *Store {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Store{
		backend:  backend,
		interval: interval,
		records:  make(map[string]Record),
		stopChan: make(chan struct{}),
	}
}

// Load replaces the in-memory map with the backend contents. Missing storage
// yields an empty map.
func (s *Store) Load() error {
	records, err := s.backend.Load()
	if err != nil {
		return err
	}
	if records == nil {
		records = make(map[string]Record)
	}

	s.mu.Lock()
	s.records = records
	s.dirty = false
	s.mu.Unlock()

	logging.Info("Loaded metadata for %d files", len(records))
	return nil
}

// Set upserts one attribute of the record for path. Sibling keys are kept.
func (s *Store) Set(path, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[path]
	if !ok {
		rec = make(Record)
		s.records[path] = rec
	}
	rec[key] = value
	s.dirty = true
}

// Get returns the value stored for key on path, or def when absent.
func (s *Store) Get(path, key string, def any) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.records[path][key]; ok {
		return v
	}
	return def
}

// getBool returns a boolean attribute, or def when absent or not a bool.
func (s *Store) getBool(path, key string, def bool) bool {
	if b, ok := s.Get(path, key, def).(bool); ok {
		return b
	}
	return def
}

// Record returns a copy of the record for path.
func (s *Store) Record(path string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[path]
	if !ok {
		return nil, false
	}
	return rec.clone(), true
}

// Len returns the number of paths with a record.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Dirty reports whether there are changes not yet persisted.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Store) snapshot() map[string]Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() map[string]Record {
	snap := make(map[string]Record, len(s.records))
	for path, rec := range s.records {
		snap[path] = rec.clone()
	}
	return snap
}

// Start launches the background writer. It runs until ctx is cancelled or
// Close is called.
func (s *Store) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.done = make(chan struct{})
		go s.writeLoop(ctx)
	})
}

func (s *Store) writeLoop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Errors are logged and retried on the next tick.
			_ = s.Flush()
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		}
	}
}

// Flush writes the full map through the backend if anything changed since
// the last successful write. On failure the store stays dirty.
func (s *Store) Flush() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	snap := s.snapshotLocked()
	s.dirty = false
	s.mu.Unlock()

	logging.Debug("Updating metadata storage (%d records)", len(snap))

	start := time.Now()
	err := s.backend.Save(snap)
	metrics.MetadataFlushDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()

		metrics.MetadataFlushesTotal.WithLabelValues("error").Inc()
		logging.Error("Failed to write metadata: %v", err)
		return err
	}

	metrics.MetadataFlushesTotal.WithLabelValues("success").Inc()
	return nil
}

// Close stops the background writer, performs a final flush and closes the
// backend. It is safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)

		// A Start after Close becomes a no-op.
		s.startOnce.Do(func() {})
		if s.done != nil {
			<-s.done
		}

		flushErr := s.Flush()
		closeErr := s.backend.Close()

		if flushErr != nil {
			s.closeErr = flushErr
		} else {
			s.closeErr = closeErr
		}
		logging.Info("Metadata store closed")
	})
	return s.closeErr
}
