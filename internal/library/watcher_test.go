package library

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func waitForCandidates(t *testing.T, sink *recordingSink, want []string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got := slices.Clone(sink.last())
		slices.Sort(got)
		if slices.Equal(got, want) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("candidates = %v, want %v", sink.last(), want)
}

func TestWatcherReindexesOnChange(t *testing.T) {
	root := createLibrary(t, map[string]int{"a.jpg": 1})
	sink := &recordingSink{}
	idx := New(Config{MediaDir: root, Walker: DefaultWalkerConfig()}, nil, sink)
	if err := idx.Index(context.Background()); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	w := NewWatcher(idx, 50*time.Millisecond)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := os.Mkdir(filepath.Join(root, "2024"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "2024", "b.jpg"), []byte{1}, 0o644); err != nil {
		t.Fatal(err)
	}
	waitForCandidates(t, sink, []string{"2024/b.jpg", "a.jpg"})

	if err := os.Remove(filepath.Join(root, "a.jpg")); err != nil {
		t.Fatal(err)
	}
	waitForCandidates(t, sink, []string{"2024/b.jpg"})
}

func TestWatcherIgnoresHiddenAndOtherFiles(t *testing.T) {
	root := createLibrary(t, map[string]int{"a.jpg": 1})
	sink := &recordingSink{}
	idx := New(Config{MediaDir: root, Walker: DefaultWalkerConfig()}, nil, sink)

	w := NewWatcher(idx, 20*time.Millisecond)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(root, ".a.jpg.partial.jpg"), []byte{1}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte{1}, 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	sink.mu.Lock()
	calls := len(sink.calls)
	sink.mu.Unlock()
	if calls != 0 {
		t.Errorf("expected no re-index, got %d", calls)
	}
}

func TestWatcherStopWithoutStart(t *testing.T) {
	idx := New(Config{MediaDir: t.TempDir()}, nil, nil)
	NewWatcher(idx, 0).Stop()
}

func TestWatcherRelevant(t *testing.T) {
	w := &Watcher{}
	tests := []struct {
		name  string
		event fsnotify.Event
		isDir bool
		want  bool
	}{
		{"new photo", fsnotify.Event{Name: "/m/a.jpg", Op: fsnotify.Create}, false, true},
		{"new text file", fsnotify.Event{Name: "/m/a.txt", Op: fsnotify.Create}, false, false},
		{"new directory", fsnotify.Event{Name: "/m/2024", Op: fsnotify.Create}, true, true},
		{"write", fsnotify.Event{Name: "/m/a.jpg", Op: fsnotify.Write}, false, false},
		{"removed video", fsnotify.Event{Name: "/m/a.mp4", Op: fsnotify.Remove}, false, true},
		{"removed directory", fsnotify.Event{Name: "/m/2024", Op: fsnotify.Remove}, false, true},
		{"renamed photo", fsnotify.Event{Name: "/m/a.jpg", Op: fsnotify.Rename}, false, true},
		{"chmod", fsnotify.Event{Name: "/m/a.jpg", Op: fsnotify.Chmod}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.relevant(tt.event, tt.isDir); got != tt.want {
				t.Errorf("relevant() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsHidden(t *testing.T) {
	tests := map[string]bool{
		"a.jpg":             false,
		"2024/a.jpg":        false,
		".thumbs/a.jpg":     true,
		"2024/.a.jpg":       true,
		".":                 false,
		"2024/.sync/x.jpeg": true,
	}
	for rel, want := range tests {
		if got := isHidden(rel); got != want {
			t.Errorf("isHidden(%q) = %v, want %v", rel, got, want)
		}
	}
}
