package media

import (
	"context"
	"fmt"
	"time"

	"picture-frame/internal/logging"
	"picture-frame/internal/mediatypes"
)

// DefaultProbeTimeout bounds a single ffprobe invocation.
const DefaultProbeTimeout = 30 * time.Second

// Classifier inspects local media files. It is safe for concurrent use.
type Classifier struct {
	probeTimeout time.Duration
	probe        probeFunc
}

// NewClassifier creates a Classifier whose video probes are cancelled after
// probeTimeout. A non-positive timeout selects DefaultProbeTimeout.
func NewClassifier(probeTimeout time.Duration) *Classifier {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	return &Classifier{
		probeTimeout: probeTimeout,
		probe:        runFFprobe,
	}
}

// IsLandscape reports whether the file at path displays wider than tall.
// Photos honour the EXIF orientation tag; videos honour the stream rotation.
// Square media is treated as landscape.
func (c *Classifier) IsLandscape(ctx context.Context, path string) (bool, error) {
	switch mediatypes.GetFileType(path) {
	case mediatypes.FileTypeVideo:
		info, err := c.VideoInfo(ctx, path)
		if err != nil {
			return false, err
		}
		return info.Displayed().Landscape(), nil
	case mediatypes.FileTypeImage:
		dims, err := photoDimensions(path)
		if err != nil {
			return false, err
		}
		logging.Debug("Photo %s displays at %dx%d", path, dims.Width, dims.Height)
		return dims.Landscape(), nil
	default:
		return false, fmt.Errorf("unsupported media type: %s", path)
	}
}

// VideoInfo probes a video file with ffprobe under the configured timeout.
func (c *Classifier) VideoInfo(ctx context.Context, path string) (*VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	out, err := c.probe(ctx, path)
	if err != nil {
		return nil, err
	}

	info, err := parseProbeOutput(out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logging.Debug("Video %s: %dx%d rotation %d", path, info.Width, info.Height, info.Rotation)
	return info, nil
}
