package startup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/viper"

	"picture-frame/internal/library"
	"picture-frame/internal/logging"
	"picture-frame/internal/metadata"
	"picture-frame/internal/staging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Default configuration values.
const (
	DefaultPort            = "5000"
	DefaultMetricsPort     = "9090"
	DefaultCacheDepth      = 10
	DefaultRefreshInterval = 30 * time.Second
	DefaultIndexSchedule   = "@every 6h"
	DefaultKioskBrowser    = "chromium-browser"
	DefaultMetadataDir     = "/data"
)

// configName is the base name searched for when CONFIG_FILE is not set.
const configName = "picture-frame"

// Config holds all application configuration
type Config struct {
	MediaDir string
	CacheDir string

	MetadataPath     string
	MetadataBackend  string
	MetadataInterval time.Duration

	CacheDepth     int
	ShowLandscape  bool
	ShowPortrait   bool
	StagingWorkers int
	ProbeTimeout   time.Duration
	CleanOnStart   bool

	IndexSchedule string
	IndexWorkers  int
	WatchLibrary  bool
	WatchDebounce time.Duration

	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	RefreshInterval time.Duration
	LogStaticFiles  bool
	LogHealthChecks bool

	KioskEnabled bool
	KioskBrowser string
	KioskURL     string

	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// ConfigFile is the file values were read from, empty when only the
	// environment was used.
	ConfigFile string
}

// Policy returns the orientation policy selected by SHOW_LANDSCAPE and
// SHOW_PORTRAIT.
func (c *Config) Policy() staging.Policy {
	return staging.Policy{
		ShowLandscape: c.ShowLandscape,
		ShowPortrait:  c.ShowPortrait,
	}
}

// LogFileConfig returns the rotating log file settings.
func (c *Config) LogFileConfig() logging.FileConfig {
	cfg := logging.DefaultFileConfig(c.LogFile)
	if c.LogMaxSizeMB > 0 {
		cfg.MaxSizeMB = c.LogMaxSizeMB
	}
	if c.LogMaxBackups > 0 {
		cfg.MaxBackups = c.LogMaxBackups
	}
	if c.LogMaxAgeDays > 0 {
		cfg.MaxAgeDays = c.LogMaxAgeDays
	}
	return cfg
}

// LoadConfig loads and validates configuration from environment variables
// and, when present, a config file.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	v, err := newViper()
	if err != nil {
		return nil, err
	}
	return loadConfig(v)
}

// newViper builds the value source: environment variables override the
// optional config file. CONFIG_FILE names the file explicitly; otherwise
// picture-frame.{yaml,toml,json} is searched for in /etc/picture-frame and
// the working directory.
func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName(configName)
	v.AddConfigPath("/etc/picture-frame")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

func loadConfig(v *viper.Viper) (*Config, error) {
	if level := getString(v, "log_level", ""); level != "" {
		logging.SetLevel(logging.ParseLevel(level))
	}

	section("CONFIGURATION")

	backend := strings.ToLower(getString(v, "metadata_backend", metadata.BackendJSON))

	config := &Config{
		MediaDir:         getString(v, "media_dir", "/media"),
		CacheDir:         getString(v, "cache_dir", "/cache"),
		MetadataBackend:  backend,
		MetadataPath:     getString(v, "metadata_path", defaultMetadataPath(backend)),
		MetadataInterval: getDuration(v, "metadata_interval", metadata.DefaultInterval),
		CacheDepth:       getInt(v, "cache_depth", DefaultCacheDepth),
		ShowLandscape:    getBool(v, "show_landscape", true),
		ShowPortrait:     getBool(v, "show_portrait", true),
		StagingWorkers:   getInt(v, "staging_workers", 0),
		ProbeTimeout:     getDuration(v, "probe_timeout", 30*time.Second),
		CleanOnStart:     getBool(v, "clean_on_start", true),
		IndexSchedule:    scheduleValue(getString(v, "index_schedule", DefaultIndexSchedule)),
		IndexWorkers:     getInt(v, "index_workers", library.DefaultWalkerConfig().NumWorkers),
		WatchLibrary:     getBool(v, "watch_library", true),
		WatchDebounce:    getDuration(v, "watch_debounce", library.DefaultWatchDebounce),
		Port:             getString(v, "port", DefaultPort),
		MetricsPort:      getString(v, "metrics_port", DefaultMetricsPort),
		MetricsEnabled:   getBool(v, "metrics_enabled", true),
		RefreshInterval:  getDuration(v, "refresh_interval", DefaultRefreshInterval),
		LogStaticFiles:   getBool(v, "log_static_files", false),
		LogHealthChecks:  getBool(v, "log_health_checks", true),
		KioskEnabled:     getBool(v, "kiosk_enabled", false),
		KioskBrowser:     getString(v, "kiosk_browser", DefaultKioskBrowser),
		LogFile:          getString(v, "log_file", ""),
		LogMaxSizeMB:     getInt(v, "log_max_size_mb", 0),
		LogMaxBackups:    getInt(v, "log_max_backups", 0),
		LogMaxAgeDays:    getInt(v, "log_max_age_days", 0),
		ConfigFile:       v.ConfigFileUsed(),
	}
	config.KioskURL = getString(v, "kiosk_url", "http://localhost:"+config.Port+"/")

	configFile := config.ConfigFile
	if configFile == "" {
		configFile = "(none, environment only)"
	}

	logging.Info("  CONFIG_FILE:         %s", configFile)
	logging.Info("  MEDIA_DIR:           %s", config.MediaDir)
	logging.Info("  CACHE_DIR:           %s", config.CacheDir)
	logging.Info("  METADATA_BACKEND:    %s", config.MetadataBackend)
	logging.Info("  METADATA_PATH:       %s", config.MetadataPath)
	logging.Info("  METADATA_INTERVAL:   %v", config.MetadataInterval)
	logging.Info("  CACHE_DEPTH:         %d", config.CacheDepth)
	logging.Info("  SHOW_LANDSCAPE:      %v", config.ShowLandscape)
	logging.Info("  SHOW_PORTRAIT:       %v", config.ShowPortrait)
	logging.Info("  STAGING_WORKERS:     %s", autoString(config.StagingWorkers))
	logging.Info("  PROBE_TIMEOUT:       %v", config.ProbeTimeout)
	logging.Info("  CLEAN_ON_START:      %v", config.CleanOnStart)
	logging.Info("  INDEX_SCHEDULE:      %s", scheduleString(config.IndexSchedule))
	logging.Info("  INDEX_WORKERS:       %d", config.IndexWorkers)
	logging.Info("  WATCH_LIBRARY:       %v", config.WatchLibrary)
	if config.WatchLibrary {
		logging.Info("  WATCH_DEBOUNCE:      %v", config.WatchDebounce)
	}
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  REFRESH_INTERVAL:    %v", config.RefreshInterval)
	logging.Info("  KIOSK_ENABLED:       %v", config.KioskEnabled)
	if config.KioskEnabled {
		logging.Info("  KIOSK_BROWSER:       %s", config.KioskBrowser)
		logging.Info("  KIOSK_URL:           %s", config.KioskURL)
	}
	logging.Info("  LOG_FILE:            %s", valueOrNone(config.LogFile))
	logging.Info("  LOG_STATIC_FILES:    %v", config.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if err := validate(config); err != nil {
		return nil, err
	}

	section("DIRECTORY SETUP")

	var err error
	config.MediaDir, err = filepath.Abs(config.MediaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
	}
	logging.Info("  Media directory (absolute): %s", config.MediaDir)

	config.CacheDir, err = filepath.Abs(config.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	logging.Info("  Cache directory (absolute): %s", config.CacheDir)

	config.MetadataPath, err = filepath.Abs(config.MetadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve metadata path: %w", err)
	}
	logging.Info("  Metadata file (absolute):   %s", config.MetadataPath)

	if config.CacheDir == config.MediaDir {
		return nil, fmt.Errorf("cache directory must differ from the media directory")
	}

	// Check/create media directory (warning only)
	if err := ensureDirectory(config.MediaDir, "media"); err != nil {
		logging.Warn("  Media directory issue: %v", err)
	}

	// The cache directory holds the staged copies and is required
	if err := ensureDirectory(config.CacheDir, "cache"); err != nil {
		return nil, fmt.Errorf("cache directory error: %w", err)
	}
	logging.Debug("  Testing cache directory write access...")
	if err := testWriteAccess(config.CacheDir); err != nil {
		return nil, fmt.Errorf("cache directory is not writable (required for staging): %w", err)
	}
	logging.Info("  [OK] Cache directory is writable")

	metadataDir := filepath.Dir(config.MetadataPath)
	if err := ensureDirectory(metadataDir, "metadata"); err != nil {
		return nil, fmt.Errorf("metadata directory error: %w", err)
	}
	logging.Debug("  Testing metadata directory write access...")
	if err := testWriteAccess(metadataDir); err != nil {
		return nil, fmt.Errorf("metadata directory is not writable (required for metadata): %w", err)
	}
	logging.Info("  [OK] Metadata directory is writable")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Landscape:   %s", enabledString(config.ShowLandscape))
	logging.Info("    Portrait:    %s", enabledString(config.ShowPortrait))
	logging.Info("    Re-index:    %s", enabledString(config.IndexSchedule != ""))
	logging.Info("    Watcher:     %s", enabledString(config.WatchLibrary))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))
	logging.Info("    Kiosk:       %s", enabledString(config.KioskEnabled))

	return config, nil
}

func validate(config *Config) error {
	if config.CacheDepth < 1 {
		return fmt.Errorf("CACHE_DEPTH must be at least 1, got %d", config.CacheDepth)
	}
	if !config.ShowLandscape && !config.ShowPortrait {
		return fmt.Errorf("at least one of SHOW_LANDSCAPE and SHOW_PORTRAIT must be enabled")
	}
	switch config.MetadataBackend {
	case metadata.BackendJSON, metadata.BackendSQLite, metadata.BackendBolt:
	default:
		return fmt.Errorf("METADATA_BACKEND: %w: %q", metadata.ErrUnknownBackend, config.MetadataBackend)
	}
	if err := library.ValidateSchedule(config.IndexSchedule); err != nil {
		return fmt.Errorf("INDEX_SCHEDULE: %w", err)
	}
	if config.StagingWorkers < 0 {
		return fmt.Errorf("STAGING_WORKERS must not be negative, got %d", config.StagingWorkers)
	}
	if config.IndexWorkers < 1 {
		logging.Warn("  Invalid INDEX_WORKERS, using default: %d", library.DefaultWalkerConfig().NumWorkers)
		config.IndexWorkers = library.DefaultWalkerConfig().NumWorkers
	}
	if config.WatchDebounce <= 0 {
		logging.Warn("  Invalid WATCH_DEBOUNCE, using default: %v", library.DefaultWatchDebounce)
		config.WatchDebounce = library.DefaultWatchDebounce
	}
	if config.MetadataInterval <= 0 {
		logging.Warn("  Invalid METADATA_INTERVAL, using default: %v", metadata.DefaultInterval)
		config.MetadataInterval = metadata.DefaultInterval
	}
	if config.ProbeTimeout <= 0 {
		logging.Warn("  Invalid PROBE_TIMEOUT, using default: 30s")
		config.ProbeTimeout = 30 * time.Second
	}
	if config.RefreshInterval < time.Second {
		logging.Warn("  Invalid REFRESH_INTERVAL, using default: %v", DefaultRefreshInterval)
		config.RefreshInterval = DefaultRefreshInterval
	}
	return nil
}

func defaultMetadataPath(backend string) string {
	name := "metadata.json"
	switch backend {
	case metadata.BackendSQLite:
		name = "metadata.db"
	case metadata.BackendBolt:
		name = "metadata.bolt"
	}
	return filepath.Join(DefaultMetadataDir, name)
}

// scheduleValue maps the words used to switch re-indexing off to the empty
// schedule.
func scheduleValue(schedule string) string {
	switch strings.ToLower(schedule) {
	case "off", "none", "disabled", "false":
		return ""
	}
	return schedule
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func autoString(n int) string {
	if n <= 0 {
		return "auto"
	}
	return strconv.Itoa(n)
}

func scheduleString(schedule string) string {
	if schedule == "" {
		return "(disabled)"
	}
	return schedule
}

func valueOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// LogMetadataInit logs metadata store initialization
func LogMetadataInit(backend, path string, records int, duration time.Duration) {
	section("METADATA INITIALIZATION")
	logging.Info("  Backend: %s", backend)
	logging.Info("  Path:    %s", path)
	logging.Info("  [OK] Loaded %d records in %v", records, duration)
}

// LogClassifierInit logs classifier initialization and checks ffprobe
func LogClassifierInit(probeTimeout time.Duration) {
	section("CLASSIFIER INITIALIZATION")
	logging.Info("  Probe timeout: %v", probeTimeout)

	if err := checkFFprobe(); err != nil {
		logging.Warn("  ffprobe check failed: %v", err)
		logging.Warn("  Videos will fail classification and never be staged")
	} else {
		logging.Info("  [OK] ffprobe is available")
	}
}

// LogStagingInit logs staging cache initialization
func LogStagingInit(stats staging.Stats, policy staging.Policy) {
	section("STAGING CACHE INITIALIZATION")
	logging.Info("  Depth:     %d", stats.Depth)
	logging.Info("  Workers:   %d", stats.Workers)
	logging.Info("  Landscape: %s", enabledString(policy.ShowLandscape))
	logging.Info("  Portrait:  %s", enabledString(policy.ShowPortrait))
	logging.Info("  [OK] Staging workers started")
}

// LogIndexerInit logs indexer initialization
func LogIndexerInit(schedule string, watch bool) {
	section("INDEXER INITIALIZATION")
	logging.Info("  Re-index schedule: %s", scheduleString(schedule))
	logging.Info("  Library watcher:   %s", enabledString(watch))
	logging.Info("  Building initial candidate set...")
}

// LogIndexerStarted logs successful indexer start
func LogIndexerStarted(candidates int, duration time.Duration) {
	logging.Info("  [OK] Indexer started with %d candidates (initial build %v)", candidates, duration)
}

// LogKioskInit logs kiosk launcher configuration
func LogKioskInit(enabled bool, browser, url string) {
	section("KIOSK")
	if !enabled {
		logging.Info("  Kiosk browser disabled (set KIOSK_ENABLED=true to enable)")
		return
	}
	if path, err := exec.LookPath(browser); err != nil {
		logging.Warn("  %s not found in PATH: %v", browser, err)
	} else {
		logging.Debug("  Browser path: %s", path)
	}
	logging.Info("  Launching %s at %s", browser, url)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	section("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Media file logging: ON")
	} else {
		logging.Info("    Media file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Frame:         http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Frame:         http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info(rule)
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(reason string) {
	section(fmt.Sprintf("SHUTDOWN INITIATED (%s)", reason))
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

const rule = "------------------------------------------------------------"

// section opens a titled block in the startup log.
func section(title string) {
	logging.Info("")
	logging.Info(rule)
	logging.Info("%s", title)
	logging.Info(rule)
}

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  _      __                    ______
   / __ \(_)____/ /___  __________    / ____/________ _____ ___  ___
  / /_/ / / ___/ __/ / / / ___/ _ \  / /_  / ___/ __ '/ __ '__ \/ _ \
 / ____/ / /__/ /_/ /_/ / /  /  __/ / __/ / /  / /_/ / / / / / /  __/
/_/   /_/\___/\__/\__,_/_/   \___/ /_/   /_/   \__,_/_/ /_/ /_/\___/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if name == "media" && logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			fileCount := 0
			dirCount := 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				} else {
					fileCount++
				}
			}
			logging.Debug("    Contents: %d files, %d directories (top level)", fileCount, dirCount)
		}
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func checkFFprobe() error {
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		return fmt.Errorf("ffprobe not found in PATH")
	}
	logging.Debug("  ffprobe path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, "ffprobe", "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffprobe version: %w", err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  ffprobe version: %s", strings.TrimSpace(lines[0]))
	}

	return nil
}

// getString returns the value for key, or defaultValue when it is unset or
// empty.
func getString(v *viper.Viper, key, defaultValue string) string {
	if value := strings.TrimSpace(v.GetString(key)); value != "" {
		return value
	}
	return defaultValue
}

func getBool(v *viper.Viper, key string, defaultValue bool) bool {
	value := getString(v, key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", strings.ToUpper(key), value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getInt(v *viper.Viper, key string, defaultValue int) int {
	value := getString(v, key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", strings.ToUpper(key), value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getDuration(v *viper.Viper, key string, defaultValue time.Duration) time.Duration {
	value := getString(v, key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration value for %s: %q, using default: %v", strings.ToUpper(key), value, defaultValue)
		return defaultValue
	}
	return parsed
}
