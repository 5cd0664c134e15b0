// Package main provides the entry point for the picture frame.
//
// The frame picks random photos and videos from a library directory, copies
// them into a small local staging cache so slow or network storage never
// stalls the display, and serves them one at a time to a full-screen
// browser.
//
// # Application Lifecycle
//
//  1. Configuration: environment variables and an optional config file
//  2. Metadata store: loaded from the configured backend, written in the background
//  3. Classifier: EXIF and ffprobe based orientation detection
//  4. Staging cache: stale copies removed, population workers started
//  5. Indexer: initial library walk, then re-indexing on a cron schedule and
//     after library changes
//  6. HTTP servers: frame and API on PORT, Prometheus on METRICS_PORT
//  7. Kiosk browser, when enabled
//
// # Graceful Shutdown
//
// SIGINT, SIGTERM and POST /api/stop all stop the application the same
// way: the kiosk browser is killed, re-indexing stops, the staging workers
// exit and every cached copy is deleted, the metadata store performs a
// final write, and the HTTP servers shut down.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"picture-frame/internal/filesystem"
	"picture-frame/internal/handlers"
	"picture-frame/internal/kiosk"
	"picture-frame/internal/library"
	"picture-frame/internal/logging"
	"picture-frame/internal/media"
	"picture-frame/internal/metadata"
	"picture-frame/internal/metrics"
	"picture-frame/internal/middleware"
	"picture-frame/internal/staging"
	"picture-frame/internal/startup"
)

const (
	shutdownTimeout         = 30 * time.Second
	metricsCollectInterval  = 15 * time.Second
	serverReadTimeout       = 15 * time.Second
	serverIdleTimeout       = 60 * time.Second
	metricsServerTimeout    = 10 * time.Second
	metricsReadHeaderTimout = 5 * time.Second
)

// statsAdapter combines cache and metadata counters for the metrics
// collector.
type statsAdapter struct {
	cache *staging.Cache
	store *metadata.Store
}

// GetStats implements metrics.StatsProvider
func (a *statsAdapter) GetStats() metrics.Stats {
	stats := a.cache.Stats()
	return metrics.Stats{
		Staged:          stats.Staged,
		Candidates:      stats.Candidates,
		InFlight:        stats.InFlight,
		CacheDepth:      stats.Depth,
		MetadataRecords: a.store.Len(),
	}
}

// app holds everything shutdown has to stop.
type app struct {
	kiosk         *kiosk.Launcher
	indexer       *library.Indexer
	watcher       *library.Watcher
	collector     *metrics.Collector
	cache         *staging.Cache
	handlers      *handlers.Handlers
	store         *metadata.Store
	server        *http.Server
	metricsServer *http.Server
	cancel        context.CancelFunc
}

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	logCloser := logging.SetupOutput(config.LogFileConfig())
	defer logCloser.Close()

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"media": config.MediaDir,
		"cache": config.CacheDir,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	a := &app{cancel: cancel}

	// Metadata store
	metaStart := time.Now()
	backend, err := metadata.Open(config.MetadataBackend, config.MetadataPath)
	if err != nil {
		startup.LogFatal("Failed to open metadata backend: %v", err)
	}
	a.store = metadata.New(backend, config.MetadataInterval)
	if err := a.store.Load(); err != nil {
		startup.LogFatal("Failed to load metadata: %v", err)
	}
	a.store.Start(ctx)
	startup.LogMetadataInit(config.MetadataBackend, config.MetadataPath, a.store.Len(), time.Since(metaStart))

	// Classifier
	startup.LogClassifierInit(config.ProbeTimeout)
	classifier := media.NewClassifier(config.ProbeTimeout)

	// Staging cache
	a.cache, err = staging.New(staging.Config{
		MediaDir: config.MediaDir,
		CacheDir: config.CacheDir,
		Depth:    config.CacheDepth,
		Workers:  config.StagingWorkers,
		Policy:   config.Policy(),
		Retry:    filesystem.DefaultRetryConfig(),
	}, classifier, a.store)
	if err != nil {
		startup.LogFatal("Failed to create staging cache: %v", err)
	}
	if config.CleanOnStart {
		if err := a.cache.ClearDirectory(); err != nil {
			logging.Warn("Failed to clear cache directory: %v", err)
		}
	}
	a.cache.Start(ctx)
	startup.LogStagingInit(a.cache.Stats(), config.Policy())

	// Indexer
	startup.LogIndexerInit(config.IndexSchedule, config.WatchLibrary)
	walkerConfig := library.DefaultWalkerConfig()
	walkerConfig.NumWorkers = config.IndexWorkers
	a.indexer = library.New(library.Config{
		MediaDir: config.MediaDir,
		Schedule: config.IndexSchedule,
		Walker:   walkerConfig,
		Policy:   config.Policy(),
	}, a.store, a.cache)

	indexStart := time.Now()
	if err := a.indexer.Index(ctx); err != nil {
		logging.Error("Initial index failed: %v", err)
	}
	if err := a.indexer.Start(); err != nil {
		logging.Error("Failed to schedule re-indexing: %v", err)
	}
	if config.WatchLibrary {
		a.watcher = library.NewWatcher(a.indexer, config.WatchDebounce)
		if err := a.watcher.Start(ctx); err != nil {
			logging.Warn("Library watcher not started: %v", err)
		}
	}
	startup.LogIndexerStarted(a.cache.Stats().Candidates, time.Since(indexStart))

	// Metrics collector
	a.collector = metrics.NewCollector(&statsAdapter{cache: a.cache, store: a.store}, metricsCollectInterval)
	a.collector.Start()

	// HTTP
	stopRequests := make(chan string, 1)
	a.handlers = handlers.New(a.cache, a.store, a.indexer, classifier, handlers.Config{
		RefreshInterval: config.RefreshInterval,
		Stop: func(reason string) {
			select {
			case stopRequests <- reason:
			default:
			}
		},
	})

	router := setupRouter(a.handlers)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	a.server = &http.Server{
		Addr:        ":" + config.Port,
		Handler:     middleware.Logger(loggingConfig)(router),
		ReadTimeout: serverReadTimeout,
		// Videos are served with range requests of arbitrary length
		WriteTimeout: 0,
		IdleTimeout:  serverIdleTimeout,
	}

	serverErrors := make(chan error, 2)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	if config.MetricsEnabled {
		a.metricsServer = newMetricsServer(config.MetricsPort, a.handlers)
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Kiosk
	startup.LogKioskInit(config.KioskEnabled, config.KioskBrowser, config.KioskURL)
	if config.KioskEnabled {
		a.kiosk = kiosk.New(kiosk.Config{Browser: config.KioskBrowser, URL: config.KioskURL})
		if err := a.kiosk.Start(ctx); err != nil {
			logging.Warn("Kiosk browser not started: %v", err)
		}
	}

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	reason := waitForShutdown(stopRequests, serverErrors)
	a.shutdown(reason)
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Frame
	r.HandleFunc("/", h.Frame).Methods("GET")
	r.HandleFunc("/media/{path:.*}", h.ServeMedia).Methods("GET", "HEAD")

	// API
	api := r.PathPrefix("/api").Subrouter()
	// Without this a method mismatch inside the subrouter surfaces as 404.
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	api.HandleFunc("/next", h.NextItem).Methods("GET")
	api.HandleFunc("/exclude", h.Exclude).Methods("POST")
	api.HandleFunc("/metadata/{path:.*}", h.GetMetadata).Methods("GET")
	api.HandleFunc("/status", h.GetStatus).Methods("GET")
	api.HandleFunc("/cache/fill", h.FillCache).Methods("POST")
	api.HandleFunc("/cache/clean", h.CleanCache).Methods("POST")
	api.HandleFunc("/stop", h.Stop).Methods("POST")

	return r
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	r.HandleFunc("/health", h.LivenessCheck).Methods("GET")

	return &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: metricsReadHeaderTimout,
		ReadTimeout:       metricsServerTimeout,
		WriteTimeout:      metricsServerTimeout,
	}
}

// waitForShutdown blocks until a signal, a stop request or a fatal server
// error, and returns a description of the cause.
func waitForShutdown(stopRequests <-chan string, serverErrors <-chan error) string {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		return "received " + sig.String()
	case reason := <-stopRequests:
		return reason
	case err := <-serverErrors:
		logging.Error("Server error: %v", err)
		return "server error"
	}
}

func (a *app) shutdown(reason string) {
	startup.LogShutdownInitiated(reason)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.kiosk != nil {
		startup.LogShutdownStep("Stopping kiosk browser")
		a.kiosk.Stop()
		startup.LogShutdownStepComplete("Kiosk browser stopped")
	}

	startup.LogShutdownStep("Stopping indexer")
	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.indexer.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	startup.LogShutdownStep("Stopping metrics collector")
	a.collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping staging workers")
	if err := a.cache.Close(); err != nil {
		logging.Warn("Staging cache close error: %v", err)
	}
	removed := a.cache.Clean()
	a.handlers.ReleaseCurrent()
	startup.LogShutdownStepComplete("Staging cache cleaned")
	logging.Info("  Removed %d staged files", removed)

	startup.LogShutdownStep("Writing metadata")
	if err := a.store.Close(); err != nil {
		logging.Error("Metadata close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Metadata written")
	}

	a.cancel()

	if a.metricsServer != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := a.server.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
