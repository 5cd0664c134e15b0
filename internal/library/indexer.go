package library

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"picture-frame/internal/filesystem"
	"picture-frame/internal/logging"
	"picture-frame/internal/metrics"
	"picture-frame/internal/staging"
)

// scheduleParser accepts standard five-field specs, an optional seconds
// field, and descriptors such as "@daily" or "@every 6h".
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSchedule checks a re-index schedule. An empty schedule is valid and
// disables periodic re-indexing.
func ValidateSchedule(expr string) error {
	if expr == "" {
		return nil
	}
	if _, err := scheduleParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron pattern: %w", err)
	}
	return nil
}

// CandidateSink receives the candidate set after each build.
type CandidateSink interface {
	SetCandidates(paths []string)
}

// Config configures an Indexer.
type Config struct {
	MediaDir string
	Schedule string
	Walker   WalkerConfig
	Policy   staging.Policy
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready             bool        `json:"ready"`
	Indexing          bool        `json:"indexing"`
	StartTime         time.Time   `json:"startTime"`
	Uptime            string      `json:"uptime"`
	LastIndexed       time.Time   `json:"lastIndexed,omitempty"`
	LastDuration      string      `json:"lastDuration,omitempty"`
	LastError         string      `json:"lastError,omitempty"`
	FilesFound        int         `json:"filesFound"`
	Filtered          FilterStats `json:"filtered"`
	Schedule          string      `json:"schedule,omitempty"`
	NextIndex         *time.Time  `json:"nextIndex,omitempty"`
	InitialIndexError string      `json:"initialIndexError,omitempty"`
}

// Indexer builds the candidate set from the media library and pushes it to
// a CandidateSink, once at startup and then on a cron schedule.
type Indexer struct {
	cfg  Config
	meta MetadataReader
	sink CandidateSink

	cron    *cron.Cron
	entryID cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc

	indexMu              sync.Mutex
	isIndexing           bool
	initialIndexComplete bool
	initialIndexError    error
	lastIndexTime        time.Time
	lastDuration         time.Duration
	lastError            error
	filesFound           int
	filtered             FilterStats
	startTime            time.Time
}

// New creates an Indexer.
func New(cfg Config, meta MetadataReader, sink CandidateSink) *Indexer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Indexer{
		cfg:       cfg,
		meta:      meta,
		sink:      sink,
		cron:      cron.New(cron.WithParser(scheduleParser)),
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

// Start schedules periodic re-indexing. It does not run an index itself;
// call Index first for the initial build.
func (idx *Indexer) Start() error {
	if idx.cfg.Schedule == "" {
		logging.Info("Periodic re-indexing disabled")
		return nil
	}

	entryID, err := idx.cron.AddFunc(idx.cfg.Schedule, func() {
		if err := idx.Index(idx.ctx); err != nil {
			logging.Error("Scheduled index error: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron pattern: %w", err)
	}
	idx.entryID = entryID

	idx.cron.Start()
	logging.Info("Periodic re-indexing scheduled: %s", idx.cfg.Schedule)
	return nil
}

// Stop cancels a running build and waits for scheduled jobs to finish.
func (idx *Indexer) Stop() {
	idx.cancel()
	<-idx.cron.Stop().Done()
}

// Index walks the library, filters the result against metadata and replaces
// the sink's candidate set. Concurrent calls are coalesced: a call made
// while a build runs returns immediately.
func (idx *Indexer) Index(ctx context.Context) error {
	if !idx.tryStartIndexing() {
		logging.Info("Index already in progress, skipping...")
		return nil
	}

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)

	startTime := time.Now()
	logging.Info("Starting library indexing of %s", idx.cfg.MediaDir)

	kept, found, stats, err := idx.build(ctx)
	duration := time.Since(startTime)

	idx.finishIndexing(startTime, duration, found, stats, err)

	if err != nil {
		metrics.IndexerRunsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.IndexerRunsTotal.WithLabelValues("success").Inc()
	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(duration.Seconds())
	metrics.IndexerFilesFound.Set(float64(found))

	logging.Info("Indexed %d files (%d excluded, %d wrong orientation) in %v",
		stats.Kept, stats.Excluded, stats.Orientation, duration)

	if idx.sink != nil {
		idx.sink.SetCandidates(kept)
	}
	return nil
}

func (idx *Indexer) build(ctx context.Context) ([]string, int, FilterStats, error) {
	info, err := filesystem.StatWithRetry(idx.cfg.MediaDir, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, 0, FilterStats{}, fmt.Errorf("media directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return nil, 0, FilterStats{}, fmt.Errorf("media path %s is not a directory", idx.cfg.MediaDir)
	}

	walker := NewWalker(idx.cfg.MediaDir, idx.cfg.Walker)
	paths, err := walker.Walk(ctx)
	if err != nil {
		return nil, len(paths), FilterStats{}, fmt.Errorf("library walk error: %w", err)
	}

	kept, stats := Filter(paths, idx.meta, idx.cfg.Policy)
	return kept, len(paths), stats, nil
}

func (idx *Indexer) tryStartIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	return true
}

func (idx *Indexer) finishIndexing(at time.Time, duration time.Duration, found int, stats FilterStats, err error) {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	idx.isIndexing = false
	idx.lastError = err
	if err != nil {
		if !idx.initialIndexComplete {
			idx.initialIndexError = err
		}
		return
	}

	idx.initialIndexComplete = true
	idx.initialIndexError = nil
	idx.lastIndexTime = at
	idx.lastDuration = duration
	idx.filesFound = found
	idx.filtered = stats
}

// IsReady reports whether at least one build has completed.
func (idx *Indexer) IsReady() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.initialIndexComplete
}

// GetHealthStatus returns detailed health information.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	status := HealthStatus{
		Ready:       idx.initialIndexComplete,
		Indexing:    idx.isIndexing,
		StartTime:   idx.startTime,
		Uptime:      time.Since(idx.startTime).Round(time.Second).String(),
		LastIndexed: idx.lastIndexTime,
		FilesFound:  idx.filesFound,
		Filtered:    idx.filtered,
		Schedule:    idx.cfg.Schedule,
	}

	if idx.lastDuration > 0 {
		status.LastDuration = idx.lastDuration.Round(time.Millisecond).String()
	}
	if idx.lastError != nil {
		status.LastError = idx.lastError.Error()
	}
	if idx.initialIndexError != nil {
		status.InitialIndexError = idx.initialIndexError.Error()
	}
	if idx.entryID != 0 {
		next := idx.cron.Entry(idx.entryID).Next
		if !next.IsZero() {
			status.NextIndex = &next
		}
	}

	return status
}
