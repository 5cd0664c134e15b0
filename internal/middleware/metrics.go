package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"picture-frame/internal/metrics"
)

// MetricsConfig controls which requests the metrics middleware records.
type MetricsConfig struct {
	// SkipPaths are path prefixes left out of the HTTP metrics. Probes and
	// scrapes would otherwise dominate the request counts.
	SkipPaths []string
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{"/metrics", "/health", "/livez", "/readyz"},
	}
}

func (c MetricsConfig) skip(path string) bool {
	return slices.ContainsFunc(c.SkipPaths, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

// Metrics records request counts, latency and in-flight requests. Install it
// with Router.Use; outside a router every request is labelled "unmatched".
func Metrics(config MetricsConfig) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			inFlight := metrics.HTTPRequestsInFlight
			inFlight.Inc()
			defer inFlight.Dec()

			started := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			elapsed := time.Since(started).Seconds()

			route := routeLabel(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed)
		})
	}
}

// routeLabel prefers the route template, such as /media/{path:.*}, so
// individual media paths never become label values.
func routeLabel(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unmatched"
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return "unmatched"
	}
	return tmpl
}
