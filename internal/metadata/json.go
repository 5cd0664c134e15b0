package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// JSONBackend stores the map as one indented JSON document. Each save
// writes a temporary sibling file and renames it over the target.
type JSONBackend struct {
	path string
}

// NewJSONBackend creates a JSON backend for the file at path.
func NewJSONBackend(path string) *JSONBackend {
	return &JSONBackend{path: path}
}

// Load reads the file. A missing file yields an empty map.
func (b *JSONBackend) Load() (map[string]Record, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]Record), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	records := make(map[string]Record)
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse metadata file %s: %w", b.path, err)
	}
	return records, nil
}

// Save overwrites the file with records.
func (b *JSONBackend) Save(records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace metadata file: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Save.
func (b *JSONBackend) Close() error {
	return nil
}
