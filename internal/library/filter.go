package library

import (
	"picture-frame/internal/metrics"
	"picture-frame/internal/staging"
)

// Metadata keys consulted when building the candidate set.
const (
	KeyExclude   = "exclude"
	KeyLandscape = "landscape"
)

// MetadataReader is the read side of the metadata store.
type MetadataReader interface {
	Get(path, key string, def any) any
}

// FilterStats counts why paths were dropped.
type FilterStats struct {
	Kept        int `json:"kept"`
	Excluded    int `json:"excluded"`
	Orientation int `json:"orientation"`
}

// Filter drops paths marked exclude=true and paths whose recorded
// orientation fails policy. Paths with no recorded orientation are kept;
// staging classifies them.
func Filter(paths []string, meta MetadataReader, policy staging.Policy) ([]string, FilterStats) {
	var stats FilterStats
	kept := make([]string, 0, len(paths))

	for _, p := range paths {
		if meta != nil {
			if excluded, ok := meta.Get(p, KeyExclude, nil).(bool); ok && excluded {
				stats.Excluded++
				continue
			}
			if landscape, ok := meta.Get(p, KeyLandscape, nil).(bool); ok && !policy.Accepts(landscape) {
				stats.Orientation++
				continue
			}
		}
		kept = append(kept, p)
	}

	stats.Kept = len(kept)

	metrics.IndexerFilesFiltered.WithLabelValues("excluded").Set(float64(stats.Excluded))
	metrics.IndexerFilesFiltered.WithLabelValues("orientation").Set(float64(stats.Orientation))

	return kept, stats
}
