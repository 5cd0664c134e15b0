package library

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"picture-frame/internal/logging"
	"picture-frame/internal/mediatypes"
	"picture-frame/internal/metrics"
)

// WalkerConfig configures the parallel directory walker
type WalkerConfig struct {
	// NumWorkers is the number of parallel workers
	NumWorkers int
	// ChannelBuffer is the size of the work channel buffer
	ChannelBuffer int
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
}

// DefaultWalkerConfig returns defaults that are safe for NFS-mounted libraries.
func DefaultWalkerConfig() WalkerConfig {
	return WalkerConfig{
		NumWorkers:    3,
		ChannelBuffer: 1000,
		SkipHidden:    true,
	}
}

// fileJob represents a file to be checked
type fileJob struct {
	relPath string
	size    int64
}

// Walker lists the media files under a library root in parallel.
type Walker struct {
	config   WalkerConfig
	mediaDir string

	jobs    chan fileJob
	results chan string
	wg      sync.WaitGroup

	// Statistics
	filesSeen    atomic.Int64
	mediaFound   atomic.Int64
	skippedEmpty atomic.Int64
}

// NewWalker creates a walker over mediaDir.
func NewWalker(mediaDir string, config WalkerConfig) *Walker {
	if config.NumWorkers < 1 {
		config.NumWorkers = 1
	}
	if config.ChannelBuffer < 1 {
		config.ChannelBuffer = 1
	}
	return &Walker{
		config:   config,
		mediaDir: mediaDir,
		jobs:     make(chan fileJob, config.ChannelBuffer),
		results:  make(chan string, config.ChannelBuffer),
	}
}

// Walk returns the relative, slash-separated paths of every supported media
// file, sorted. A cancelled ctx stops the walk early and returns ctx.Err()
// with whatever was found so far.
func (w *Walker) Walk(ctx context.Context) ([]string, error) {
	logging.Info("Starting parallel library walk with %d workers", w.config.NumWorkers)
	startTime := time.Now()

	metrics.IndexerParallelWorkers.Set(float64(w.config.NumWorkers))

	for i := 0; i < w.config.NumWorkers; i++ {
		w.wg.Add(1)
		go w.worker(ctx, i)
	}

	var paths []string
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for p := range w.results {
			paths = append(paths, p)
		}
	}()

	err := w.walkAndEnqueue(ctx)

	close(w.jobs)
	w.wg.Wait()
	close(w.results)
	<-collected

	sort.Strings(paths)

	logging.Info("Library walk complete: %d media files of %d files in %v (empty skipped: %d)",
		w.mediaFound.Load(), w.filesSeen.Load(), time.Since(startTime), w.skippedEmpty.Load())

	if err != nil && !errors.Is(err, fs.SkipAll) {
		return paths, err
	}
	return paths, ctx.Err()
}

func (w *Walker) walkAndEnqueue(ctx context.Context) error {
	return filepath.WalkDir(w.mediaDir, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return fs.SkipAll
		default:
		}

		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil // Continue walking
		}

		if w.config.SkipHidden && strings.HasPrefix(d.Name(), ".") && path != w.mediaDir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(w.mediaDir, path)
		if err != nil {
			//nolint:nilerr // skip this file but keep walking
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logging.Warn("Error getting info for %s: %v", path, err)
			return nil
		}

		select {
		case w.jobs <- fileJob{relPath: filepath.ToSlash(relPath), size: info.Size()}:
		case <-ctx.Done():
			return fs.SkipAll
		}
		return nil
	})
}

func (w *Walker) worker(ctx context.Context, id int) {
	defer w.wg.Done()

	logging.Debug("Walker worker %d started", id)

	for job := range w.jobs {
		w.filesSeen.Add(1)

		if !mediatypes.IsMedia(job.relPath) {
			continue
		}
		if job.size == 0 {
			w.skippedEmpty.Add(1)
			continue
		}
		w.mediaFound.Add(1)

		select {
		case w.results <- job.relPath:
		case <-ctx.Done():
			return
		}
	}

	logging.Debug("Walker worker %d finished", id)
}

// Stats returns counters from the last walk.
func (w *Walker) Stats() (seen, media, empty int64) {
	return w.filesSeen.Load(), w.mediaFound.Load(), w.skippedEmpty.Load()
}
