package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"

	"picture-frame/internal/logging"
	"picture-frame/internal/media"
	"picture-frame/internal/mediatypes"
)

// emptyRefresh is how soon an empty frame page retries.
const emptyRefresh = 5 * time.Second

//go:embed templates/*.html
var templatesFS embed.FS

var frameTemplate = template.Must(template.ParseFS(templatesFS, "templates/frame.html"))

// Item describes one staged file handed out to a display.
type Item struct {
	Path      string              `json:"path"`
	URL       string              `json:"url"`
	Type      mediatypes.FileType `json:"type"`
	MimeType  string              `json:"mimeType"`
	Capture   *media.CaptureInfo  `json:"capture,omitempty"`
	Remaining int                 `json:"remaining"`
}

type framePage struct {
	Item           *Item
	RefreshSeconds int
	Caption        string
	Location       string
}

// nextItem takes the next staged file and describes it.
func (h *Handlers) nextItem(r *http.Request) (*Item, bool) {
	path, ok := h.next()
	if !ok {
		return nil, false
	}

	item := &Item{
		Path:      path,
		URL:       mediaURL(path),
		Type:      mediatypes.GetFileType(path),
		MimeType:  mediatypes.GetMimeType(path),
		Remaining: h.cache.Stats().Staged,
	}

	if h.capture != nil {
		info, err := h.capture.Capture(r.Context(), h.cache.CachePath(path))
		if err != nil {
			logging.Debug("No capture info for %s: %v", path, err)
		} else {
			item.Capture = &info
		}
	}
	return item, true
}

// Frame renders the display page for the next staged file. The page
// reloads itself after the refresh interval to advance.
func (h *Handlers) Frame(w http.ResponseWriter, r *http.Request) {
	page := framePage{RefreshSeconds: int(h.config.RefreshInterval / time.Second)}

	if item, ok := h.nextItem(r); ok {
		page.Item = item
		if item.Capture != nil {
			page.Caption = item.Capture.Taken.Format("2 January 2006")
			if item.Capture.HasLocation {
				page.Location = fmt.Sprintf("%.4f, %.4f", item.Capture.Latitude, item.Capture.Longitude)
			}
		}
	} else {
		page.RefreshSeconds = int(emptyRefresh / time.Second)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.frame.Execute(w, page); err != nil {
		logging.Error("failed to render frame page: %v", err)
	}
}

// NextItem hands out the next staged file as JSON. An empty cache answers
// 503 after requesting a refill.
func (h *Handlers) NextItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.nextItem(r)
	if !ok {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(emptyRefresh/time.Second)))
		writeJSONError(w, "cache empty", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSONCode(w, http.StatusOK, item)
}

// ServeMedia serves the cached copy of a staged file.
func (h *Handlers) ServeMedia(w http.ResponseWriter, r *http.Request) {
	path, ok := cleanLibraryPath(mux.Vars(r)["path"])
	if !ok {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}
	if !mediatypes.IsMedia(path) {
		http.Error(w, "Unsupported media type", http.StatusBadRequest)
		return
	}

	fullPath := h.cache.CachePath(path)
	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		logging.Debug("Cached copy not found: %s", path)
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(path))
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, filepath.Clean(fullPath))
}
