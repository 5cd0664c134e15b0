package media

import (
	"fmt"
	"image"
	"os"

	"picture-frame/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/tiff" // TIFF format support
	_ "golang.org/x/image/webp" // WebP format support
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// Landscape reports whether the dimensions are at least as wide as tall.
// Square media counts as landscape.
func (d ImageDimensions) Landscape() bool {
	return d.Width >= d.Height
}

// Swapped returns the dimensions rotated by a quarter turn.
func (d ImageDimensions) Swapped() ImageDimensions {
	return ImageDimensions{Width: d.Height, Height: d.Width}
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// exifOrientation returns the EXIF orientation tag (1-8) of a photo.
// Files without EXIF data, or without the tag, report 1 (upright).
func exifOrientation(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 1
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	x, err := exif.Decode(f)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil || orientation < 1 || orientation > 8 {
		return 1
	}
	return orientation
}

// rotatedOrientation reports whether an EXIF orientation value implies a
// quarter turn, which swaps the displayed width and height.
func rotatedOrientation(orientation int) bool {
	return orientation >= 5 && orientation <= 8
}

// photoDimensions returns the displayed dimensions of a photo. The header is
// read first; when no registered decoder understands it, the file is fully
// decoded with EXIF auto-orientation applied, so no extra swap is needed.
func photoDimensions(path string) (ImageDimensions, error) {
	dims, err := GetImageDimensions(path)
	if err == nil {
		if rotatedOrientation(exifOrientation(path)) {
			return dims.Swapped(), nil
		}
		return *dims, nil
	}

	logging.Debug("Could not read image header for %s: %v, decoding fully", path, err)

	img, openErr := imaging.Open(path, imaging.AutoOrientation(true))
	if openErr != nil {
		return ImageDimensions{}, fmt.Errorf("failed to decode image: %w", openErr)
	}

	bounds := img.Bounds()
	return ImageDimensions{Width: bounds.Dx(), Height: bounds.Dy()}, nil
}
