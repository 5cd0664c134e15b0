// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is resolved by [LoadConfig] through viper. Environment
// variables take precedence over an optional config file named by
// CONFIG_FILE, or picture-frame.{yaml,toml,json} found in /etc/picture-frame
// or the working directory. Keys in a file use the lower-case form of the
// variable names below.
//
//   - MEDIA_DIR: Library root that candidates are drawn from (default: /media)
//   - CACHE_DIR: Directory holding staged copies (default: /cache)
//   - METADATA_BACKEND: json, sqlite or bolt (default: json)
//   - METADATA_PATH: Metadata file (default: /data/metadata.<ext>)
//   - METADATA_INTERVAL: Background write interval (default: 1s)
//   - CACHE_DEPTH: Number of files kept staged (default: 10)
//   - SHOW_LANDSCAPE, SHOW_PORTRAIT: Orientation policy (default: true)
//   - STAGING_WORKERS: Population pool size, 0 sizes it from the CPU count
//   - PROBE_TIMEOUT: ffprobe timeout per video (default: 30s)
//   - CLEAN_ON_START: Empty CACHE_DIR before staging (default: true)
//   - INDEX_SCHEDULE: Cron expression for re-indexing, "off" disables (default: @every 6h)
//   - INDEX_WORKERS: Library walker goroutines (default: 3)
//   - WATCH_LIBRARY, WATCH_DEBOUNCE: Re-index after library changes (default: true, 30s)
//   - PORT: HTTP server port (default: 5000)
//   - METRICS_PORT, METRICS_ENABLED: Prometheus server (default: 9090, true)
//   - REFRESH_INTERVAL: Frame page refresh interval (default: 30s)
//   - KIOSK_ENABLED, KIOSK_BROWSER, KIOSK_URL: Kiosk browser launcher
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_FILE, LOG_MAX_SIZE_MB, LOG_MAX_BACKUPS, LOG_MAX_AGE_DAYS: Rotating log file
//   - LOG_STATIC_FILES, LOG_HEALTH_CHECKS: HTTP request logging filters
//
// Invalid numbers, booleans and durations are logged and replaced by their
// defaults. A depth below one, a policy that shows nothing, an unknown
// metadata backend or a malformed schedule are errors.
//
// # Directory Setup
//
//   - Cache directory: Required, must be writable
//   - Metadata directory: Required, must be writable
//   - Media directory: Created if missing, problems are only logged
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [LogMetadataInit], [LogClassifierInit], [LogStagingInit]
//   - [LogIndexerInit], [LogIndexerStarted], [LogKioskInit]
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated], [LogShutdownStep], [LogShutdownComplete]
package startup
