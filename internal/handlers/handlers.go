package handlers

import (
	"context"
	"html/template"
	"sync"
	"time"

	"picture-frame/internal/library"
	"picture-frame/internal/media"
	"picture-frame/internal/metadata"
	"picture-frame/internal/staging"
)

// StagingCache is the part of the staging cache the serving layer drives.
type StagingCache interface {
	Get() (string, bool)
	Fill() int
	FillOrErr() (int, error)
	Clean() int
	Remove(path string) bool
	Release(path string)
	CachePath(path string) string
	Stats() staging.Stats
	Staged() []string
}

// MetadataStore reads and writes per-file attributes.
type MetadataStore interface {
	Set(path, key string, value any)
	Record(path string) (metadata.Record, bool)
	Len() int
	Dirty() bool
}

// IndexerStatus reports the library indexer state for health checks.
type IndexerStatus interface {
	IsReady() bool
	GetHealthStatus() library.HealthStatus
}

// CaptureReader extracts capture date and location from a local file.
type CaptureReader interface {
	Capture(ctx context.Context, path string) (media.CaptureInfo, error)
}

// Config holds the serving options taken from startup configuration.
type Config struct {
	RefreshInterval time.Duration
	// Stop is invoked by POST /api/stop. It must not block.
	Stop func(reason string)
}

type Handlers struct {
	cache   StagingCache
	meta    MetadataStore
	indexer IndexerStatus
	capture CaptureReader
	config  Config
	frame   *template.Template

	// current is the item on screen. Its cached copy is kept until the
	// next item replaces it, so range requests for videos keep working.
	currentMu sync.Mutex
	current   string
}

func New(cache StagingCache, meta MetadataStore, idx IndexerStatus, capture CaptureReader, config Config) *Handlers {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = 30 * time.Second
	}
	return &Handlers{
		cache:   cache,
		meta:    meta,
		indexer: idx,
		capture: capture,
		config:  config,
		frame:   frameTemplate,
	}
}

// next hands out the next staged file and releases the one it replaces.
// On an empty cache it requests a refill and reports false.
func (h *Handlers) next() (string, bool) {
	path, ok := h.cache.Get()
	if !ok {
		h.cache.Fill()
		return "", false
	}

	h.currentMu.Lock()
	previous := h.current
	h.current = path
	h.currentMu.Unlock()

	if previous != "" && previous != path {
		h.cache.Release(previous)
	}
	return path, true
}

// Current returns the path on screen, if any.
func (h *Handlers) Current() string {
	h.currentMu.Lock()
	defer h.currentMu.Unlock()
	return h.current
}

// ReleaseCurrent gives the on-screen copy back to the cache. Called on
// shutdown so no copy outlives the process.
func (h *Handlers) ReleaseCurrent() {
	h.currentMu.Lock()
	path := h.current
	h.current = ""
	h.currentMu.Unlock()

	if path != "" {
		h.cache.Release(path)
	}
}
