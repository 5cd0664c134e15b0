package media

import (
	"context"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"picture-frame/internal/logging"
	"picture-frame/internal/mediatypes"
)

// Capture sources, from most to least trustworthy.
const (
	CaptureSourceEXIF    = "exif"
	CaptureSourceVideo   = "video"
	CaptureSourceModTime = "modtime"
)

// CaptureInfo holds when and where a photo or clip was taken.
type CaptureInfo struct {
	Taken       time.Time `json:"taken"`
	Source      string    `json:"source"`
	HasLocation bool      `json:"hasLocation"`
	Latitude    float64   `json:"latitude,omitempty"`
	Longitude   float64   `json:"longitude,omitempty"`
}

// iso6709 matches the leading latitude/longitude pair of an ISO 6709 string
// such as "+37.7749-122.4194+012.000/".
var iso6709 = regexp.MustCompile(`^([+-]\d+(?:\.\d+)?)([+-]\d+(?:\.\d+)?)`)

// Capture extracts the capture date and coordinates of a file. Photos are
// read from EXIF, videos from ffprobe container tags. When neither yields a
// date, the file modification time is used.
func (c *Classifier) Capture(ctx context.Context, path string) (CaptureInfo, error) {
	var info CaptureInfo

	switch mediatypes.GetFileType(path) {
	case mediatypes.FileTypeImage:
		info = photoCapture(path)
	case mediatypes.FileTypeVideo:
		if v, err := c.VideoInfo(ctx, path); err != nil {
			logging.Debug("Could not probe %s for capture info: %v", path, err)
		} else {
			info = videoCapture(v)
		}
	}

	if info.Taken.IsZero() {
		stat, err := os.Stat(path)
		if err != nil {
			return CaptureInfo{}, err
		}
		info.Taken = stat.ModTime()
		info.Source = CaptureSourceModTime
	}

	return info, nil
}

func photoCapture(path string) CaptureInfo {
	var info CaptureInfo

	f, err := os.Open(path)
	if err != nil {
		return info
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	x, err := exif.Decode(f)
	if err != nil {
		return info
	}

	if taken, err := x.DateTime(); err == nil {
		info.Taken = taken
		info.Source = CaptureSourceEXIF
	}
	if lat, lon, err := x.LatLong(); err == nil {
		info.HasLocation = true
		info.Latitude = lat
		info.Longitude = lon
	}

	return info
}

func videoCapture(v *VideoInfo) CaptureInfo {
	var info CaptureInfo

	if v.CreationTime != "" {
		if taken, err := time.Parse(time.RFC3339Nano, v.CreationTime); err == nil {
			info.Taken = taken
			info.Source = CaptureSourceVideo
		}
	}

	if lat, lon, ok := parseISO6709(v.Location); ok {
		info.HasLocation = true
		info.Latitude = lat
		info.Longitude = lon
	}

	return info
}

func parseISO6709(s string) (lat, lon float64, ok bool) {
	m := iso6709.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}
