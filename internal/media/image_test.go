package media

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetImageDimensions(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name   string
		width  int
		height int
		format string
	}{
		{name: "Square JPEG", width: 100, height: 100, format: "jpeg"},
		{name: "Wide JPEG", width: 1920, height: 1080, format: "jpeg"},
		{name: "Tall JPEG", width: 1080, height: 1920, format: "jpeg"},
		{name: "Small PNG", width: 200, height: 150, format: "png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filename := filepath.Join(tmpDir, tt.name+"."+tt.format)
			createTestImage(t, filename, tt.width, tt.height, tt.format)

			dims, err := GetImageDimensions(filename)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if dims.Width != tt.width || dims.Height != tt.height {
				t.Errorf("dimensions = %dx%d, want %dx%d", dims.Width, dims.Height, tt.width, tt.height)
			}
		})
	}
}

func TestGetImageDimensionsErrors(t *testing.T) {
	notImage := filepath.Join(t.TempDir(), "not-an-image.jpg")
	if err := os.WriteFile(notImage, []byte("This is not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"/nonexistent/path/to/image.jpg", notImage} {
		if _, err := GetImageDimensions(path); err == nil {
			t.Errorf("GetImageDimensions(%q) expected error", path)
		}
	}
}

func TestImageDimensionsLandscape(t *testing.T) {
	tests := []struct {
		dims ImageDimensions
		want bool
	}{
		{ImageDimensions{Width: 1920, Height: 1080}, true},
		{ImageDimensions{Width: 1080, Height: 1920}, false},
		{ImageDimensions{Width: 500, Height: 500}, true},
	}

	for _, tt := range tests {
		if got := tt.dims.Landscape(); got != tt.want {
			t.Errorf("%+v.Landscape() = %v, want %v", tt.dims, got, tt.want)
		}
		if got := tt.dims.Swapped(); got.Width != tt.dims.Height || got.Height != tt.dims.Width {
			t.Errorf("%+v.Swapped() = %+v", tt.dims, got)
		}
	}
}

func TestPhotoDimensionsWithoutExif(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tall.png")
	createTestImage(t, path, 30, 60, "png")

	dims, err := photoDimensions(path)
	if err != nil {
		t.Fatalf("photoDimensions() error = %v", err)
	}
	if dims != (ImageDimensions{Width: 30, Height: 60}) {
		t.Errorf("photoDimensions() = %+v, want 30x60", dims)
	}
}

func BenchmarkGetImageDimensions(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench.jpg")
	createTestImage(b, path, 1920, 1080, "jpeg")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := GetImageDimensions(path); err != nil {
			b.Fatal(err)
		}
	}
}
