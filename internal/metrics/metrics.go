package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picture_frame_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "picture_frame_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picture_frame_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Staging cache metrics
var (
	StagingAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picture_frame_staging_attempts_total",
			Help: "Total number of population attempts by outcome",
		},
		[]string{"outcome"}, // "staged", "rejected", "failed", "skipped"
	)

	StagingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "picture_frame_staging_duration_seconds",
			Help:    "Copy and classification duration of a population attempt",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"type"}, // "image", "video"
	)

	StagingRequestsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "picture_frame_staging_requests_dropped_total",
			Help: "Population requests dropped because the request queue was full",
		},
	)

	StagingQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picture_frame_staging_queue_length",
			Help: "Number of staged files waiting to be served",
		},
	)

	StagingCandidates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picture_frame_staging_candidates",
			Help: "Number of library paths eligible for staging",
		},
	)

	StagingInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picture_frame_staging_in_flight",
			Help: "Number of population attempts currently copying or classifying",
		},
	)

	StagingCacheDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picture_frame_staging_cache_depth",
			Help: "Configured capacity of the staged queue",
		},
	)

	StagingServedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "picture_frame_staging_served_total",
			Help: "Total number of staged files handed to the display",
		},
	)

	StagingEmptyTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "picture_frame_staging_empty_total",
			Help: "Number of times the display asked for a file while the queue was empty",
		},
	)
)

// Metadata store metrics
var (
	MetadataFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picture_frame_metadata_flushes_total",
			Help: "Total number of metadata persistence cycles by status",
		},
		[]string{"status"},
	)

	MetadataFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "picture_frame_metadata_flush_duration_seconds",
			Help:    "Duration of writing the metadata snapshot to durable storage",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	MetadataRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picture_frame_metadata_records",
			Help: "Number of media paths with a metadata record",
		},
	)
)

// Library indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picture_frame_indexer_runs_total",
			Help: "Total number of library index builds by status",
		},
		[]string{"status"},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picture_frame_indexer_last_run_timestamp",
			Help: "Timestamp of the last library index build",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picture_frame_indexer_last_run_duration_seconds",
			Help: "Duration of the last library index build in seconds",
		},
	)

	IndexerFilesFound = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picture_frame_indexer_files_found",
			Help: "Media files found by the last walk, before metadata filtering",
		},
	)

	IndexerFilesFiltered = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "picture_frame_indexer_files_filtered",
			Help: "Media files dropped by the last build by reason",
		},
		[]string{"reason"}, // "excluded", "orientation"
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picture_frame_indexer_running",
			Help: "Whether the indexer is currently running (1 = running, 0 = idle)",
		},
	)

	IndexerParallelWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picture_frame_indexer_parallel_workers",
			Help: "Number of workers used by the parallel library walk",
		},
	)
)

// Library watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picture_frame_watcher_events_total",
			Help: "Filesystem events seen under the library root by type",
		},
		[]string{"type"},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "picture_frame_watcher_errors_total",
			Help: "Errors raised by the library watcher",
		},
	)

	WatcherWatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "picture_frame_watcher_directories",
			Help: "Number of library directories being watched",
		},
	)

	WatcherReindexTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "picture_frame_watcher_reindex_total",
			Help: "Index builds triggered by library changes",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picture_frame_filesystem_retry_attempts_total",
			Help: "Retries of filesystem operations after stale NFS handles",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picture_frame_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picture_frame_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "picture_frame_filesystem_stale_errors_total",
			Help: "ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "picture_frame_filesystem_retry_duration_seconds",
			Help:    "Total duration of retried filesystem operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "picture_frame_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
