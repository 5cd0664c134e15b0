package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"picture-frame/internal/logging"
	"picture-frame/internal/mediatypes"
	"picture-frame/internal/metrics"
)

// DefaultWatchDebounce is how long the library has to stay quiet after a
// change before a re-index runs. Copying an album produces a burst of events.
const DefaultWatchDebounce = 30 * time.Second

// Watcher re-indexes the library after files are added, removed or renamed.
type Watcher struct {
	indexer  *Indexer
	root     string
	debounce time.Duration

	watcher *fsnotify.Watcher
	timerMu sync.Mutex
	timer   *time.Timer

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher creates a Watcher for the indexer's media directory. A
// non-positive debounce uses DefaultWatchDebounce.
func NewWatcher(idx *Indexer, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &Watcher{
		indexer:  idx,
		root:     idx.cfg.MediaDir,
		debounce: debounce,
		done:     make(chan struct{}),
	}
}

// Start registers every visible directory under the library root and
// begins processing events.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatcherErrors.Inc()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.watcher = watcher

	count := w.addDirectories(w.root)
	metrics.WatcherWatchedDirectories.Set(float64(count))
	logging.Info("Library watcher started, watching %d directories", count)

	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)
	return nil
}

// Stop ends event processing and cancels a pending re-index. It is safe to
// call on a Watcher that was never started.
func (w *Watcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()
}

func (w *Watcher) addDirectories(root string) int {
	count := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if addErr := w.watcher.Add(path); addErr != nil {
			logging.Warn("Failed to watch %s: %v", path, addErr)
			metrics.WatcherErrors.Inc()
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		logging.Error("Failed to walk library for watcher: %v", err)
		metrics.WatcherErrors.Inc()
	}
	return count
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer func() {
		if err := w.watcher.Close(); err != nil {
			logging.Error("Failed to close file watcher: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Watcher error: %v", err)
			metrics.WatcherErrors.Inc()
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || isHidden(rel) {
		return
	}

	metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	isDir := false
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			isDir = true
			added := w.addDirectories(event.Name)
			metrics.WatcherWatchedDirectories.Add(float64(added))
			logging.Debug("Watching new directory %s", rel)
		}
	}

	if !w.relevant(event, isDir) {
		return
	}
	w.schedule(ctx)
}

// relevant reports whether event can change the candidate set. Writes to
// files already listed do not; new directories and removed paths of any
// kind might.
func (w *Watcher) relevant(event fsnotify.Event, isDir bool) bool {
	switch {
	case isDir:
		return true
	case event.Op.Has(fsnotify.Create):
		return mediatypes.IsMedia(event.Name)
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		// The path is gone, so a directory can only be told apart by name.
		return mediatypes.IsMedia(event.Name) || filepath.Ext(event.Name) == ""
	default:
		return false
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		logging.Info("Library changed, re-indexing")
		metrics.WatcherReindexTotal.Inc()
		if err := w.indexer.Index(ctx); err != nil {
			logging.Error("Re-index after library change failed: %v", err)
		}
	})
}

func isHidden(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return true
		}
	}
	return false
}

func eventType(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	case op.Has(fsnotify.Chmod):
		return "chmod"
	default:
		return "unknown"
	}
}
