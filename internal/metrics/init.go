package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, outcome := range []string{"staged", "rejected", "failed", "skipped"} {
		StagingAttemptsTotal.WithLabelValues(outcome)
	}
	for _, t := range []string{"image", "video"} {
		StagingDuration.WithLabelValues(t)
	}

	for _, status := range []string{"success", "error"} {
		MetadataFlushesTotal.WithLabelValues(status)
		IndexerRunsTotal.WithLabelValues(status)
	}

	for _, reason := range []string{"excluded", "orientation"} {
		IndexerFilesFiltered.WithLabelValues(reason)
	}

	for _, t := range []string{"create", "write", "remove", "rename", "chmod"} {
		WatcherEventsTotal.WithLabelValues(t)
	}

	volumes := []string{"media", "cache", "unknown"}
	for _, op := range []string{"stat", "open"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
