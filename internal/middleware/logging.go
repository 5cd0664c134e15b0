package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"picture-frame/internal/logging"
	"picture-frame/internal/mediatypes"
)

// LoggingConfig selects which requests reach the access log.
type LoggingConfig struct {
	SkipPaths []string
	// LogStaticFiles enables logging of media under MediaPrefix. A looping
	// video issues a range request per loop.
	LogStaticFiles  bool
	LogHealthChecks bool
	MediaPrefix     string
}

// DefaultLoggingConfig logs everything except favicon and media requests.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:       []string{"/favicon.ico"},
		LogHealthChecks: true,
		MediaPrefix:     "/media/",
	}
}

func isHealthPath(path string) bool {
	switch path {
	case "/health", "/livez", "/readyz":
		return true
	}
	return false
}

// Logger writes one access log line per request in W3C extended format:
//
//	date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken cs(Range) cs(User-Agent)
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			logging.Printf("%s", accessLine(r, sw, start))
		})
	}
}

func accessLine(r *http.Request, sw *statusWriter, start time.Time) string {
	now := time.Now().UTC()
	fields := []string{
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		field(clientIP(r)),
		field(r.Method),
		field(r.URL.Path),
		field(r.URL.RawQuery),
		strconv.Itoa(sw.status),
		strconv.FormatInt(sw.size, 10),
		strconv.FormatInt(time.Since(start).Milliseconds(), 10),
		field(r.Header.Get("Range")),
		escapeW3CField(field(r.Header.Get("User-Agent"))),
	}
	return strings.Join(fields, " ")
}

func shouldSkip(path string, config LoggingConfig) bool {
	for _, prefix := range config.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	if isHealthPath(path) {
		return !config.LogHealthChecks
	}
	if config.LogStaticFiles || config.MediaPrefix == "" {
		return false
	}
	return strings.HasPrefix(path, config.MediaPrefix) && mediatypes.IsMedia(path)
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// field sanitizes a request value and substitutes "-" for empty values.
func field(s string) string {
	s = sanitizeLogField(s)
	if s == "" {
		return "-"
	}
	return s
}

// sanitizeLogField drops control characters so a request cannot forge log
// lines. Line breaks become spaces; tabs survive.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

// escapeW3CField quotes a field containing whitespace or quotes.
func escapeW3CField(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
