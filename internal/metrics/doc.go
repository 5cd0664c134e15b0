// Package metrics provides Prometheus instrumentation for the picture frame.
//
// All metrics are prefixed with "picture_frame_" and registered on the default
// registry through promauto, so main only has to mount promhttp.Handler().
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// ## Staging Cache Metrics
//   - StagingAttemptsTotal: population attempts by outcome
//   - StagingDuration: copy + classify time by media type
//   - StagingQueueLength, StagingCandidates, StagingInFlight, StagingCacheDepth
//   - StagingServedTotal, StagingEmptyTotal, StagingRequestsDropped
//
// ## Metadata Metrics
//   - MetadataFlushesTotal, MetadataFlushDuration, MetadataRecords
//
// ## Indexer Metrics
//   - IndexerRunsTotal, IndexerLastRunTimestamp, IndexerLastRunDuration
//   - IndexerFilesFound, IndexerFilesFiltered, IndexerIsRunning
//
// ## Filesystem Metrics
//   - FilesystemRetry*: NFS stale handle retries, recorded through the
//     filesystem.Observer implemented in observer.go
//
// Gauges describing the cache are sampled by the Collector rather than updated
// on each mutation.
package metrics
