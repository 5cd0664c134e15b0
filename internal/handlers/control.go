package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"picture-frame/internal/logging"
	"picture-frame/internal/metadata"
	"picture-frame/internal/staging"
)

// ExcludeRequest names a library file to stop showing.
type ExcludeRequest struct {
	Path string `json:"path"`
}

// StatusResponse describes the frame state.
type StatusResponse struct {
	Cache   staging.Stats `json:"cache"`
	Current string        `json:"current,omitempty"`
	// Queue lists staged files in the order they will be shown.
	Queue           []string `json:"queue"`
	MetadataRecords int      `json:"metadataRecords"`
	MetadataPending bool     `json:"metadataPending"`
}

// Exclude marks a file as excluded and drops it from the candidate set. A
// copy that is already staged is still shown once.
func (h *Handlers) Exclude(w http.ResponseWriter, r *http.Request) {
	var req ExcludeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	path, ok := cleanLibraryPath(req.Path)
	if !ok {
		http.Error(w, "Path is required", http.StatusBadRequest)
		return
	}

	h.meta.Set(path, metadata.KeyExclude, true)
	removed := h.cache.Remove(path)
	logging.Info("Excluded %s (was candidate: %v)", path, removed)

	writeJSONCode(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"path":    path,
		"removed": removed,
	})
}

// GetMetadata returns the stored record of one library file.
func (h *Handlers) GetMetadata(w http.ResponseWriter, r *http.Request) {
	path, ok := cleanLibraryPath(mux.Vars(r)["path"])
	if !ok {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	record, found := h.meta.Record(path)
	if !found {
		writeJSONError(w, "no metadata for path", http.StatusNotFound)
		return
	}

	writeJSONCode(w, http.StatusOK, map[string]interface{}{
		"path":     path,
		"metadata": record,
	})
}

// GetStatus reports cache counters, the staged queue, the item on screen
// and whether metadata changes are waiting to be written.
func (h *Handlers) GetStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONCode(w, http.StatusOK, StatusResponse{
		Cache:           h.cache.Stats(),
		Current:         h.Current(),
		Queue:           h.cache.Staged(),
		MetadataRecords: h.meta.Len(),
		MetadataPending: h.meta.Dirty(),
	})
}

// FillCache requests population attempts for every free slot.
func (h *Handlers) FillCache(w http.ResponseWriter, _ *http.Request) {
	submitted, err := h.cache.FillOrErr()
	if errors.Is(err, staging.ErrClosed) {
		writeJSONError(w, "staging cache is shutting down", http.StatusServiceUnavailable)
		return
	}

	writeJSONCode(w, http.StatusOK, map[string]int{"submitted": submitted})
}

// CleanCache drops every staged file and deletes the copies.
func (h *Handlers) CleanCache(w http.ResponseWriter, _ *http.Request) {
	removed := h.cache.Clean()
	logging.Info("Cache cleaned on request: %d files removed", removed)

	writeJSONCode(w, http.StatusOK, map[string]int{"removed": removed})
}

// Stop asks the application to shut down gracefully.
func (h *Handlers) Stop(w http.ResponseWriter, _ *http.Request) {
	if h.config.Stop == nil {
		writeJSONError(w, "stop not supported", http.StatusNotImplemented)
		return
	}

	logging.Info("Stop requested over HTTP")
	writeJSONCode(w, http.StatusAccepted, map[string]string{"status": "stopping"})

	h.config.Stop("POST /api/stop")
}
