package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"strings"

	"picture-frame/internal/logging"
)

// writeJSON encodes v to the response. Encoding errors are only logged;
// the status line has already been sent.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONCode sets the JSON content type and status code, then encodes v.
func writeJSONCode(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, v)
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONCode(w, statusCode, map[string]string{"error": message})
}

// cleanLibraryPath normalizes a library-relative slash path and rejects
// anything that would escape the library root.
func cleanLibraryPath(p string) (string, bool) {
	p = strings.TrimSpace(p)
	if p == "" || strings.Contains(p, "\\") {
		return "", false
	}
	cleaned := path.Clean("/" + p)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(p, "/") {
		return "", false
	}
	return cleaned, true
}

// mediaURL returns the URL the frame page uses for a staged path.
func mediaURL(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "/media/" + strings.Join(segments, "/")
}
