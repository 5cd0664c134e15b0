package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"picture-frame/internal/library"
	"picture-frame/internal/media"
	"picture-frame/internal/metadata"
	"picture-frame/internal/staging"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeCache struct {
	mu        sync.Mutex
	dir       string
	staged    []string
	removed   []string
	released  []string
	fills     int
	cleaned   int
	closed    bool
	remaining map[string]bool
}

func newFakeCache(t *testing.T, staged ...string) *fakeCache {
	t.Helper()
	c := &fakeCache{dir: t.TempDir(), remaining: make(map[string]bool)}
	for _, p := range staged {
		c.stage(t, p, "data:"+p)
	}
	return c
}

// stage writes a copy into the cache dir and queues it.
func (c *fakeCache) stage(t *testing.T, path, content string) {
	t.Helper()
	full := c.CachePath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c.staged = append(c.staged, path)
	c.remaining[path] = true
}

func (c *fakeCache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.staged) == 0 {
		return "", false
	}
	p := c.staged[0]
	c.staged = c.staged[1:]
	return p, true
}

func (c *fakeCache) Fill() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fills++
	return 1
}

func (c *fakeCache) FillOrErr() (int, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return 0, staging.ErrClosed
	}
	return c.Fill(), nil
}

func (c *fakeCache) Clean() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.staged)
	c.cleaned += n
	c.staged = nil
	return n
}

func (c *fakeCache) Remove(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = append(c.removed, path)
	present := c.remaining[path]
	delete(c.remaining, path)
	return present
}

func (c *fakeCache) Release(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = append(c.released, path)
}

func (c *fakeCache) CachePath(path string) string {
	return filepath.Join(c.dir, filepath.FromSlash(path))
}

func (c *fakeCache) Stats() staging.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return staging.Stats{Staged: len(c.staged), Candidates: len(c.remaining), Depth: 3, Workers: 2}
}

func (c *fakeCache) Staged() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.staged...)
}

type fakeMeta struct {
	mu      sync.Mutex
	records map[string]metadata.Record
	dirty   bool
}

func newFakeMeta() *fakeMeta {
	return &fakeMeta{records: make(map[string]metadata.Record)}
}

func (m *fakeMeta) Set(path, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records[path] == nil {
		m.records[path] = metadata.Record{}
	}
	m.records[path][key] = value
	m.dirty = true
}

func (m *fakeMeta) Record(path string) (metadata.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[path]
	return r, ok
}

func (m *fakeMeta) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *fakeMeta) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

type fakeIndexer struct {
	status library.HealthStatus
}

func (f *fakeIndexer) IsReady() bool                         { return f.status.Ready }
func (f *fakeIndexer) GetHealthStatus() library.HealthStatus { return f.status }

type fakeCapture struct {
	info media.CaptureInfo
	err  error
	seen []string
}

func (f *fakeCapture) Capture(_ context.Context, path string) (media.CaptureInfo, error) {
	f.seen = append(f.seen, path)
	return f.info, f.err
}

type testEnv struct {
	h       *Handlers
	cache   *fakeCache
	meta    *fakeMeta
	indexer *fakeIndexer
	capture *fakeCapture
	stops   chan string
}

func newTestEnv(t *testing.T, staged ...string) *testEnv {
	t.Helper()
	env := &testEnv{
		cache:   newFakeCache(t, staged...),
		meta:    newFakeMeta(),
		indexer: &fakeIndexer{status: library.HealthStatus{Ready: true, Uptime: "1m"}},
		capture: &fakeCapture{info: media.CaptureInfo{
			Taken:  time.Date(2019, time.July, 4, 12, 0, 0, 0, time.UTC),
			Source: media.CaptureSourceEXIF,
		}},
		stops: make(chan string, 1),
	}
	env.h = New(env.cache, env.meta, env.indexer, env.capture, Config{
		RefreshInterval: 20 * time.Second,
		Stop:            func(reason string) { env.stops <- reason },
	})
	return env
}

// router wires the handlers the way main does.
func (env *testEnv) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", env.h.Frame).Methods("GET")
	r.HandleFunc("/media/{path:.*}", env.h.ServeMedia).Methods("GET", "HEAD")
	r.HandleFunc("/api/next", env.h.NextItem).Methods("GET")
	r.HandleFunc("/api/exclude", env.h.Exclude).Methods("POST")
	r.HandleFunc("/api/metadata/{path:.*}", env.h.GetMetadata).Methods("GET")
	r.HandleFunc("/api/status", env.h.GetStatus).Methods("GET")
	r.HandleFunc("/api/cache/fill", env.h.FillCache).Methods("POST")
	r.HandleFunc("/api/cache/clean", env.h.CleanCache).Methods("POST")
	r.HandleFunc("/api/stop", env.h.Stop).Methods("POST")
	r.HandleFunc("/health", env.h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", env.h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", env.h.ReadinessCheck).Methods("GET")
	return r
}

func (env *testEnv) do(method, target string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, http.NoBody)
	}
	w := httptest.NewRecorder()
	env.router().ServeHTTP(w, req)
	return w
}

// =============================================================================
// Frame page
// =============================================================================

func TestFrameShowsNextImage(t *testing.T) {
	env := newTestEnv(t, "2019/beach.jpg", "2019/park.jpg")

	w := env.do(http.MethodGet, "/", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<img class="media" src="/media/2019/beach.jpg"`) {
		t.Errorf("expected image tag for the oldest staged file, got:\n%s", body)
	}
	if !strings.Contains(body, `content="20"`) {
		t.Error("expected meta refresh with the configured interval")
	}
	if !strings.Contains(body, "4 July 2019") {
		t.Error("expected capture date caption")
	}
	if got := env.h.Current(); got != "2019/beach.jpg" {
		t.Errorf("Current() = %q, want 2019/beach.jpg", got)
	}
	if len(env.capture.seen) != 1 || env.capture.seen[0] != env.cache.CachePath("2019/beach.jpg") {
		t.Errorf("capture should read the cached copy, saw %v", env.capture.seen)
	}
}

func TestFrameShowsVideo(t *testing.T) {
	env := newTestEnv(t, "clips/wave.mp4")

	w := env.do(http.MethodGet, "/", nil)

	if !strings.Contains(w.Body.String(), `<video class="media" src="/media/clips/wave.mp4" autoplay muted loop`) {
		t.Errorf("expected looping video tag, got:\n%s", w.Body.String())
	}
}

func TestFrameEscapesPaths(t *testing.T) {
	env := newTestEnv(t, "trips/day one.jpg")

	w := env.do(http.MethodGet, "/", nil)

	if !strings.Contains(w.Body.String(), "/media/trips/day%20one.jpg") {
		t.Errorf("expected escaped media URL, got:\n%s", w.Body.String())
	}
}

func TestFrameEmptyCacheRequestsFill(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Preparing photos") {
		t.Error("expected waiting message on empty cache")
	}
	if !strings.Contains(body, `content="5"`) {
		t.Error("expected the short retry refresh on empty cache")
	}
	if env.cache.fills != 1 {
		t.Errorf("expected one Fill on empty cache, got %d", env.cache.fills)
	}
}

func TestFrameReleasesPreviousItem(t *testing.T) {
	env := newTestEnv(t, "a.jpg", "b.jpg")

	env.do(http.MethodGet, "/", nil)
	if len(env.cache.released) != 0 {
		t.Fatalf("first item should not release anything, released %v", env.cache.released)
	}

	env.do(http.MethodGet, "/", nil)
	if len(env.cache.released) != 1 || env.cache.released[0] != "a.jpg" {
		t.Errorf("showing b.jpg should release a.jpg, released %v", env.cache.released)
	}

	env.h.ReleaseCurrent()
	if got := env.cache.released; len(got) != 2 || got[1] != "b.jpg" {
		t.Errorf("ReleaseCurrent should release b.jpg, released %v", got)
	}
	if env.h.Current() != "" {
		t.Error("Current() should be empty after ReleaseCurrent")
	}
}

func TestFrameKeepsCurrentWhenCacheEmpty(t *testing.T) {
	env := newTestEnv(t, "a.jpg")

	env.do(http.MethodGet, "/", nil)
	env.do(http.MethodGet, "/", nil)

	if len(env.cache.released) != 0 {
		t.Errorf("an empty cache must not release the item on screen, released %v", env.cache.released)
	}
	if env.h.Current() != "a.jpg" {
		t.Errorf("Current() = %q, want a.jpg", env.h.Current())
	}
}

// =============================================================================
// Media and next item
// =============================================================================

func TestServeMedia(t *testing.T) {
	env := newTestEnv(t, "2019/beach.jpg")

	w := env.do(http.MethodGet, "/media/2019/beach.jpg", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "data:2019/beach.jpg" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", ct)
	}
	if len(env.cache.released) != 0 {
		t.Error("serving media must not release the copy")
	}
}

func TestServeMediaErrors(t *testing.T) {
	env := newTestEnv(t, "a.jpg")
	if err := os.WriteFile(filepath.Join(env.cache.dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{name: "Missing copy", target: "/media/missing.jpg", want: http.StatusNotFound},
		{name: "Not media", target: "/media/notes.txt", want: http.StatusBadRequest},
		{name: "Empty path", target: "/media/", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, tt.target, nil)
			if w.Code != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.target, w.Code, tt.want)
			}
		})
	}
}

func TestNextItem(t *testing.T) {
	env := newTestEnv(t, "a.jpg", "b.mp4")
	env.capture.info.HasLocation = true
	env.capture.info.Latitude = 37.7749
	env.capture.info.Longitude = -122.4194

	w := env.do(http.MethodGet, "/api/next", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var item Item
	if err := json.NewDecoder(w.Body).Decode(&item); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if item.Path != "a.jpg" || item.URL != "/media/a.jpg" {
		t.Errorf("unexpected item %+v", item)
	}
	if item.Type != "image" || item.MimeType != "image/jpeg" {
		t.Errorf("unexpected type %q / %q", item.Type, item.MimeType)
	}
	if item.Remaining != 1 {
		t.Errorf("Remaining = %d, want 1", item.Remaining)
	}
	if item.Capture == nil || !item.Capture.HasLocation || item.Capture.Latitude != 37.7749 {
		t.Errorf("expected capture info with location, got %+v", item.Capture)
	}
}

func TestNextItemCaptureErrorOmitted(t *testing.T) {
	env := newTestEnv(t, "a.jpg")
	env.capture.err = errors.New("unreadable")

	w := env.do(http.MethodGet, "/api/next", nil)

	var item map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&item); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if _, ok := item["capture"]; ok {
		t.Error("capture should be omitted when it cannot be read")
	}
}

func TestNextItemEmpty(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/next", nil)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if env.cache.fills != 1 {
		t.Errorf("expected one Fill, got %d", env.cache.fills)
	}
}

// =============================================================================
// Exclude and metadata
// =============================================================================

func TestExclude(t *testing.T) {
	env := newTestEnv(t, "a.jpg")

	body, _ := json.Marshal(ExcludeRequest{Path: "a.jpg"})
	w := env.do(http.MethodPost, "/api/exclude", body)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	if rec, ok := env.meta.Record("a.jpg"); !ok || rec[metadata.KeyExclude] != true {
		t.Errorf("expected exclude=true recorded, got %v", rec)
	}
	if len(env.cache.removed) != 1 || env.cache.removed[0] != "a.jpg" {
		t.Errorf("expected candidate removal, got %v", env.cache.removed)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["removed"] != true {
		t.Errorf("removed = %v, want true", resp["removed"])
	}
}

func TestExcludeDoesNotTouchStagedQueue(t *testing.T) {
	env := newTestEnv(t, "a.jpg", "b.jpg")

	body, _ := json.Marshal(ExcludeRequest{Path: "a.jpg"})
	env.do(http.MethodPost, "/api/exclude", body)

	if env.cache.fills != 0 {
		t.Errorf("exclusion must not trigger a fill, got %d", env.cache.fills)
	}
	if got := env.cache.Stats().Staged; got != 2 {
		t.Errorf("staged = %d, want 2", got)
	}
}

func TestExcludeInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "Malformed JSON", body: "{"},
		{name: "Missing path", body: `{}`},
		{name: "Traversal", body: `{"path":"../secret.jpg"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			w := env.do(http.MethodPost, "/api/exclude", []byte(tt.body))
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
			if env.meta.Len() != 0 {
				t.Error("invalid request must not write metadata")
			}
		})
	}
}

func TestGetMetadata(t *testing.T) {
	env := newTestEnv(t)
	env.meta.Set("2019/beach.jpg", metadata.KeyLandscape, true)
	env.meta.Set("2019/beach.jpg", "rating", float64(4))

	w := env.do(http.MethodGet, "/api/metadata/2019/beach.jpg", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp struct {
		Path     string                 `json:"path"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Path != "2019/beach.jpg" {
		t.Errorf("path = %q", resp.Path)
	}
	if resp.Metadata[metadata.KeyLandscape] != true || resp.Metadata["rating"] != float64(4) {
		t.Errorf("unexpected metadata %v", resp.Metadata)
	}

	w = env.do(http.MethodGet, "/api/metadata/unknown.jpg", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown path: expected 404, got %d", w.Code)
	}
}

// =============================================================================
// Cache control
// =============================================================================

func TestGetStatus(t *testing.T) {
	env := newTestEnv(t, "a.jpg", "b.jpg")
	env.meta.Set("a.jpg", metadata.KeyLandscape, true)
	env.do(http.MethodGet, "/", nil)

	w := env.do(http.MethodGet, "/api/status", nil)

	var resp StatusResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Current != "a.jpg" {
		t.Errorf("Current = %q, want a.jpg", resp.Current)
	}
	if resp.Cache.Staged != 1 || resp.Cache.Depth != 3 {
		t.Errorf("unexpected cache stats %+v", resp.Cache)
	}
	if resp.MetadataRecords != 1 {
		t.Errorf("MetadataRecords = %d, want 1", resp.MetadataRecords)
	}
	if !reflect.DeepEqual(resp.Queue, []string{"b.jpg"}) {
		t.Errorf("Queue = %v, want [b.jpg]", resp.Queue)
	}
	if !resp.MetadataPending {
		t.Error("MetadataPending should report unwritten changes")
	}
}

func TestFillCache(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/cache/fill", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp map[string]int
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["submitted"] != 1 {
		t.Errorf("submitted = %d, want 1", resp["submitted"])
	}

	env.cache.closed = true
	w = env.do(http.MethodPost, "/api/cache/fill", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("closed cache: expected 503, got %d", w.Code)
	}
}

func TestCleanCache(t *testing.T) {
	env := newTestEnv(t, "a.jpg", "b.jpg")

	w := env.do(http.MethodPost, "/api/cache/clean", nil)

	var resp map[string]int
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["removed"] != 2 {
		t.Errorf("removed = %d, want 2", resp["removed"])
	}
	if env.cache.Stats().Staged != 0 {
		t.Error("staged queue should be empty after clean")
	}
}

func TestStop(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/stop", nil)

	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status 202, got %d", w.Code)
	}
	select {
	case reason := <-env.stops:
		if !strings.Contains(reason, "/api/stop") {
			t.Errorf("unexpected stop reason %q", reason)
		}
	default:
		t.Error("stop callback was not invoked")
	}
}

func TestStopUnsupported(t *testing.T) {
	h := New(newFakeCache(t), newFakeMeta(), &fakeIndexer{}, nil, Config{})

	w := httptest.NewRecorder()
	h.Stop(w, httptest.NewRequest(http.MethodPost, "/api/stop", http.NoBody))

	if w.Code != http.StatusNotImplemented {
		t.Errorf("Expected status 501, got %d", w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/cache/clean", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

// =============================================================================
// Utilities
// =============================================================================

func TestCleanLibraryPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"a.jpg", "a.jpg", true},
		{"2019/beach.jpg", "2019/beach.jpg", true},
		{"/2019/beach.jpg", "2019/beach.jpg", true},
		{"", "", false},
		{"  ", "", false},
		{"../a.jpg", "", false},
		{"x/../../a.jpg", "", false},
		{"x/./a.jpg", "", false},
		{"x//a.jpg", "", false},
		{`x\a.jpg`, "", false},
		{"/", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := cleanLibraryPath(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("cleanLibraryPath(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMediaURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a.jpg", "/media/a.jpg"},
		{"2019/summer trip/a b.jpg", "/media/2019/summer%20trip/a%20b.jpg"},
		{"q?.jpg", "/media/q%3F.jpg"},
	}

	for _, tt := range tests {
		if got := mediaURL(tt.input); got != tt.want {
			t.Errorf("mediaURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
