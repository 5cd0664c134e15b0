package staging

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"picture-frame/internal/filesystem"
	"picture-frame/internal/logging"
	"picture-frame/internal/mediatypes"
	"picture-frame/internal/metrics"
	"picture-frame/internal/workers"
)

// KeyLandscape is the metadata key under which orientation is recorded.
const KeyLandscape = "landscape"

// ErrClosed is returned by operations on a closed Cache.
var ErrClosed = errors.New("staging cache closed")

// Outcome is the result of one population attempt.
type Outcome string

const (
	// OutcomeStaged means the file was copied, accepted and queued.
	OutcomeStaged Outcome = "staged"
	// OutcomeRejected means the orientation policy refused the file; it was
	// removed from the candidate set.
	OutcomeRejected Outcome = "rejected"
	// OutcomeFailed means copying or classification failed, or the queue
	// filled up before the result could be committed.
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means no attempt was made: the cache was full or no
	// candidate was available.
	OutcomeSkipped Outcome = "skipped"
)

// Classifier decides the orientation of a local media file.
type Classifier interface {
	IsLandscape(ctx context.Context, path string) (bool, error)
}

// MetadataRecorder receives attributes learned while staging.
type MetadataRecorder interface {
	Set(path, key string, value any)
}

// Policy selects which orientations may be displayed.
type Policy struct {
	ShowLandscape bool
	ShowPortrait  bool
}

// Accepts reports whether a file of the given orientation may be shown.
func (p Policy) Accepts(landscape bool) bool {
	return (p.ShowLandscape && landscape) || (p.ShowPortrait && !landscape)
}

// Config configures a Cache.
type Config struct {
	MediaDir string
	CacheDir string
	Depth    int
	// Workers is the size of the population pool. Zero sizes it from the
	// CPU count, capped at Depth.
	Workers int
	Policy  Policy
	Retry   filesystem.RetryConfig
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Staged     int `json:"staged"`
	Candidates int `json:"candidates"`
	InFlight   int `json:"inFlight"`
	InService  int `json:"inService"`
	Queued     int `json:"queued"`
	Depth      int `json:"depth"`
	Workers    int `json:"workers"`
}

// Cache stages randomly picked library files into a local directory and
// hands them out in FIFO order. One mutex guards the candidate set, the
// staged queue, the in-flight set and the handed-out set; copying and
// classification run outside it.
//
// A copy handed out by Get belongs to the caller until Release. No other
// path through the cache deletes it in the meantime.
type Cache struct {
	cfg        Config
	workers    int
	classifier Classifier
	recorder   MetadataRecorder
	intn       func(int) int

	mu         sync.Mutex
	candidates *candidateSet
	staged     []string
	inFlight   map[string]struct{}
	handedOut  map[string]struct{}
	closed     bool

	requests  chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// New creates a Cache. Workers are not started until Start.
func New(cfg Config, classifier Classifier, recorder MetadataRecorder) (*Cache, error) {
	if cfg.Depth < 1 {
		return nil, fmt.Errorf("cache depth must be at least 1, got %d", cfg.Depth)
	}
	if cfg.MediaDir == "" || cfg.CacheDir == "" {
		return nil, fmt.Errorf("media and cache directories are required")
	}
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.InitialBackoff == 0 {
		cfg.Retry = filesystem.DefaultRetryConfig()
	}

	return &Cache{
		cfg:        cfg,
		workers:    workers.ForIO(cfg.Workers, cfg.Depth),
		classifier: classifier,
		recorder:   recorder,
		intn:       rand.IntN,
		candidates: newCandidateSet(nil),
		inFlight:   make(map[string]struct{}),
		handedOut:  make(map[string]struct{}),
		requests:   make(chan struct{}, 4*cfg.Depth),
	}, nil
}

// Depth returns the configured capacity of the staged queue.
func (c *Cache) Depth() int {
	return c.cfg.Depth
}

// CachePath returns the location of the cached copy of a library path.
func (c *Cache) CachePath(path string) string {
	return filepath.Join(c.cfg.CacheDir, filepath.FromSlash(path))
}

// SetCandidates replaces the candidate set, typically after an index
// rebuild, and refills the cache.
func (c *Cache) SetCandidates(paths []string) {
	c.mu.Lock()
	c.candidates = newCandidateSet(paths)
	n := c.candidates.len()
	c.mu.Unlock()

	logging.Info("Candidate set replaced: %d files", n)
	c.Fill()
}

// Remove permanently drops path from the candidate set. It reports whether
// the path was present.
func (c *Cache) Remove(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.candidates.remove(path)
}

func (c *Cache) hasCandidate(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.candidates.contains(path)
}

// Fill submits one population request per missing slot. Requests that do
// not fit in the request queue are dropped; the next Fill catches up. It
// returns the number of requests submitted.
func (c *Cache) Fill() int {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	remaining := c.cfg.Depth - len(c.staged)
	c.mu.Unlock()

	submitted := 0
	for i := 0; i < remaining; i++ {
		if c.submit() {
			submitted++
		}
	}

	if remaining > 0 {
		logging.Debug("Fill requested %d population attempts (%d accepted)", remaining, submitted)
	}
	return submitted
}

// PickAndStage runs one population attempt: pick a random eligible
// candidate and stage it. There is no inline retry.
func (c *Cache) PickAndStage(ctx context.Context) Outcome {
	c.mu.Lock()
	if len(c.staged)+len(c.inFlight) >= c.cfg.Depth {
		c.mu.Unlock()
		logging.Warn("Cache already full")
		metrics.StagingAttemptsTotal.WithLabelValues(string(OutcomeSkipped)).Inc()
		return OutcomeSkipped
	}
	if c.candidates.len() == 0 {
		c.mu.Unlock()
		logging.Warn("No files available to cache")
		metrics.StagingAttemptsTotal.WithLabelValues(string(OutcomeSkipped)).Inc()
		return OutcomeSkipped
	}

	// Files in service are only picked again when nothing else is
	// eligible, so a small library keeps cycling.
	picked, ok := c.candidates.pick(c.intn, c.busyLocked)
	if !ok {
		picked, ok = c.candidates.pick(c.intn, c.stagingLocked)
	}
	if !ok {
		c.mu.Unlock()
		logging.Warn("All %d candidates are already staged or being staged", c.candidates.len())
		metrics.StagingAttemptsTotal.WithLabelValues(string(OutcomeSkipped)).Inc()
		return OutcomeSkipped
	}
	c.inFlight[picked] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inFlight, picked)
		c.mu.Unlock()
	}()

	start := time.Now()
	outcome := c.Stage(ctx, picked)

	metrics.StagingDuration.WithLabelValues(string(mediatypes.GetFileType(picked))).Observe(time.Since(start).Seconds())
	metrics.StagingAttemptsTotal.WithLabelValues(string(outcome)).Inc()
	return outcome
}

// busyLocked reports whether path is staged, being staged or in service.
func (c *Cache) busyLocked(path string) bool {
	if _, ok := c.handedOut[path]; ok {
		return true
	}
	return c.stagingLocked(path)
}

// stagingLocked reports whether path is staged or being staged.
func (c *Cache) stagingLocked(path string) bool {
	if _, ok := c.inFlight[path]; ok {
		return true
	}
	for _, s := range c.staged {
		if s == path {
			return true
		}
	}
	return false
}

// Stage copies path into the cache, classifies the copy, records its
// orientation and either queues or rejects it.
func (c *Cache) Stage(ctx context.Context, path string) Outcome {
	logging.Info("Caching: %s", path)

	src := filepath.Join(c.cfg.MediaDir, filepath.FromSlash(path))
	dst := c.CachePath(path)

	if err := filesystem.CopyFile(src, dst, c.cfg.Retry); err != nil {
		logging.Error("Caching failed: %s, %v", path, err)
		c.discard(path)
		return OutcomeFailed
	}

	landscape, err := c.classifier.IsLandscape(ctx, dst)
	if err != nil {
		logging.Error("Caching failed: %s, classification: %v", path, err)
		c.discard(path)
		return OutcomeFailed
	}

	if c.recorder != nil {
		c.recorder.Set(path, KeyLandscape, landscape)
	}

	if !c.cfg.Policy.Accepts(landscape) {
		logging.Info("Undesired orientation: %s", path)

		c.mu.Lock()
		c.candidates.remove(path)
		c.discardLocked(path)
		c.mu.Unlock()
		return OutcomeRejected
	}

	c.mu.Lock()
	if len(c.staged) >= c.cfg.Depth {
		c.discardLocked(path)
		c.mu.Unlock()
		logging.Warn("Cache filled while staging %s, discarding copy", path)
		return OutcomeFailed
	}
	c.staged = append(c.staged, path)
	size := len(c.staged)
	c.mu.Unlock()

	logging.Info("Cached: %s - Cache size: %d", path, size)
	return OutcomeStaged
}

// Get dequeues the oldest staged file and triggers a refill. The caller
// owns the cached copy until it hands it back through Release.
func (c *Cache) Get() (string, bool) {
	c.mu.Lock()
	if len(c.staged) == 0 {
		c.mu.Unlock()
		logging.Warn("Cache empty: 0")
		metrics.StagingEmptyTotal.Inc()
		return "", false
	}
	path := c.staged[0]
	c.staged[0] = ""
	c.staged = c.staged[1:]
	c.handedOut[path] = struct{}{}
	remaining := len(c.staged)
	c.mu.Unlock()

	logging.Info("Retrieved from cache: %s - Remaining cache size: %d", path, remaining)
	metrics.StagingServedTotal.Inc()

	c.Fill()
	return path, true
}

// Release hands a file obtained from Get back and deletes its cached copy,
// unless the same path has been staged again or is being staged.
func (c *Cache) Release(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.handedOut, path)
	if c.stagingLocked(path) {
		logging.Debug("Keeping cached copy of %s: staged again", path)
		return
	}
	c.deleteCopy(c.CachePath(path))
}

// Clean drains the staged queue and deletes every cached copy. The
// candidate set is left untouched.
func (c *Cache) Clean() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.staged)
	for _, path := range c.staged {
		logging.Info("Removing from cache folder: %s", path)
		c.discardLocked(path)
	}
	c.staged = nil
	return n
}

// ClearDirectory removes everything under the cache directory, such as
// copies left behind by a previous run. The staged queue must be empty.
func (c *Cache) ClearDirectory() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.staged) > 0 || len(c.inFlight) > 0 || len(c.handedOut) > 0 {
		return fmt.Errorf("cache directory in use: %d staged, %d in flight, %d in service",
			len(c.staged), len(c.inFlight), len(c.handedOut))
	}

	entries, err := os.ReadDir(c.cfg.CacheDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(c.cfg.CacheDir, entry.Name())); err != nil {
			return fmt.Errorf("failed to clear %s: %w", entry.Name(), err)
		}
	}

	logging.Info("Cleared %d stale entries from %s", len(entries), c.cfg.CacheDir)
	return nil
}

// Stats returns current counts.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Staged:     len(c.staged),
		Candidates: c.candidates.len(),
		InFlight:   len(c.inFlight),
		InService:  len(c.handedOut),
		Queued:     len(c.requests),
		Depth:      c.cfg.Depth,
		Workers:    c.workers,
	}
}

// Staged returns a copy of the staged queue in serving order.
func (c *Cache) Staged() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.staged...)
}

func (c *Cache) discard(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discardLocked(path)
}

// discardLocked deletes the cached copy of path unless it is in service;
// Release deletes it later in that case.
func (c *Cache) discardLocked(path string) {
	if _, ok := c.handedOut[path]; ok {
		logging.Debug("Keeping cached copy of %s: in service", path)
		return
	}
	c.deleteCopy(c.CachePath(path))
}

func (c *Cache) deleteCopy(dst string) {
	if err := filesystem.RemoveFile(dst, c.cfg.CacheDir); err != nil {
		logging.Warn("Failed to delete cached copy %s: %v", dst, err)
	}
}
