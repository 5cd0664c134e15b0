// Package middleware wraps the frame's HTTP handlers with access logging in
// W3C Extended Log Format and Prometheus request metrics. Both can leave out
// media fetches and health probes, which a frame issues continuously.
package middleware
