package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"picture-frame/internal/library"
	"picture-frame/internal/staging"
	"picture-frame/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string      `json:"status"`
	Version string      `json:"version"`
	Uptime  string      `json:"uptime"`
	Current string      `json:"current,omitempty"`
	Index   IndexHealth `json:"index"`
	Cache   CacheHealth `json:"cache"`
	Runtime RuntimeInfo `json:"runtime"`
}

// IndexHealth summarizes the library indexer.
type IndexHealth struct {
	Ready        bool   `json:"ready"`
	Indexing     bool   `json:"indexing"`
	FilesFound   int    `json:"filesFound"`
	LastIndexed  string `json:"lastIndexed,omitempty"`
	NextIndex    string `json:"nextIndex,omitempty"`
	LastError    string `json:"lastError,omitempty"`
	InitialError string `json:"initialError,omitempty"`
}

// CacheHealth summarizes the staging cache.
type CacheHealth struct {
	Candidates int `json:"candidates"`
	Staged     int `json:"staged"`
	InFlight   int `json:"inFlight"`
	Depth      int `json:"depth"`
}

// RuntimeInfo holds process details.
type RuntimeInfo struct {
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// frameStatus derives the overall status. A frame that finished indexing
// but has nothing to show is degraded, as is one whose first index failed.
func frameStatus(idx library.HealthStatus, stats staging.Stats) string {
	switch {
	case idx.InitialIndexError != "":
		return statusDegraded
	case !idx.Ready:
		return statusStarting
	case stats.Candidates == 0 && stats.Staged == 0:
		return statusDegraded
	default:
		return statusHealthy
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// HealthCheck reports indexer and cache state. It answers 503 until the
// first index build has completed.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	idx := h.indexer.GetHealthStatus()
	stats := h.cache.Stats()

	response := HealthResponse{
		Status:  frameStatus(idx, stats),
		Version: startup.Version,
		Uptime:  idx.Uptime,
		Current: h.Current(),
		Index: IndexHealth{
			Ready:        idx.Ready,
			Indexing:     idx.Indexing,
			FilesFound:   idx.FilesFound,
			LastIndexed:  formatTime(idx.LastIndexed),
			LastError:    idx.LastError,
			InitialError: idx.InitialIndexError,
		},
		Cache: CacheHealth{
			Candidates: stats.Candidates,
			Staged:     stats.Staged,
			InFlight:   stats.InFlight,
			Depth:      stats.Depth,
		},
		Runtime: RuntimeInfo{
			GoVersion:    runtime.Version(),
			NumCPU:       runtime.NumCPU(),
			NumGoroutine: runtime.NumGoroutine(),
		},
	}
	if idx.NextIndex != nil {
		response.Index.NextIndex = formatTime(*idx.NextIndex)
	}

	code := http.StatusOK
	if !idx.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSONCode(w, code, response)
}

// LivenessCheck answers 200 while the process is serving. HEAD gets no body.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSONCode(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessCheck answers 200 once the first index build has completed.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if !h.indexer.IsReady() {
		writeJSONCode(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSONCode(w, http.StatusOK, map[string]string{"status": "ready"})
}

// GetVersion returns build information.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONCode(w, http.StatusOK, startup.GetBuildInfo())
}

// MetricsHandler serves the Prometheus registry.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.Handler()
}
