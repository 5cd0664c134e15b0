package filesystem

import (
	"path/filepath"
	"slices"
	"strings"
)

const unknownVolume = "unknown"

// VolumeResolver labels paths with the configured directory they live under,
// so retry metrics can tell the library mount from the local cache.
type VolumeResolver struct {
	roots []volumeRoot // longest root first
}

type volumeRoot struct {
	name string
	dir  string // cleaned absolute path
}

// NewVolumeResolver creates a resolver from volume name to directory, for
// example {"media": "/media", "cache": "/cache"}.
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	roots := make([]volumeRoot, 0, len(volumes))
	for name, dir := range volumes {
		roots = append(roots, volumeRoot{name: name, dir: absClean(dir)})
	}
	slices.SortFunc(roots, func(a, b volumeRoot) int {
		return len(b.dir) - len(a.dir)
	})
	return &VolumeResolver{roots: roots}
}

// Resolve returns the name of the deepest volume containing path, or
// "unknown".
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return unknownVolume
	}
	p := absClean(path)
	for _, root := range vr.roots {
		if p == root.dir || strings.HasPrefix(p, strings.TrimSuffix(root.dir, "/")+"/") {
			return root.name
		}
	}
	return unknownVolume
}

func absClean(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver installs the resolver used when a RetryConfig
// carries none. Call it once at startup.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}
