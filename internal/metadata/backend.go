package metadata

import (
	"errors"
	"fmt"
	"strings"
)

// Backend kinds accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// ErrUnknownBackend is returned by Open for an unrecognised backend kind.
var ErrUnknownBackend = errors.New("unknown metadata backend")

// Backend is durable storage for the whole metadata map. Save always
// receives the complete map and replaces whatever was stored before.
type Backend interface {
	Load() (map[string]Record, error)
	Save(records map[string]Record) error
	Close() error
}

// Open creates the backend of the given kind storing its data at path.
func Open(kind, path string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", BackendJSON:
		return NewJSONBackend(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendBolt:
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}
