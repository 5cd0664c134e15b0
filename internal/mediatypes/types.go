package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType is the broad kind of a file as seen by the frame.
type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypeVideo FileType = "video"
	// FileTypeOther covers everything the frame will not display.
	FileTypeOther FileType = "other"
)

const fallbackMime = "application/octet-stream"

type format struct {
	kind FileType
	mime string
}

// formats is keyed by lowercase extension with the leading dot. Only
// formats a browser can render natively are listed.
var formats = map[string]format{
	".jpg":  {FileTypeImage, "image/jpeg"},
	".jpeg": {FileTypeImage, "image/jpeg"},
	".png":  {FileTypeImage, "image/png"},
	".gif":  {FileTypeImage, "image/gif"},
	".bmp":  {FileTypeImage, "image/bmp"},
	".webp": {FileTypeImage, "image/webp"},
	".tif":  {FileTypeImage, "image/tiff"},
	".tiff": {FileTypeImage, "image/tiff"},

	".mp4":  {FileTypeVideo, "video/mp4"},
	".m4v":  {FileTypeVideo, "video/x-m4v"},
	".mov":  {FileTypeVideo, "video/quicktime"},
	".webm": {FileTypeVideo, "video/webm"},
}

// Ext returns the lowercased extension of name, dot included.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

func lookup(name string) (format, bool) {
	f, ok := formats[Ext(name)]
	return f, ok
}

// GetFileType classifies name by extension.
func GetFileType(name string) FileType {
	if f, ok := lookup(name); ok {
		return f.kind
	}
	return FileTypeOther
}

// GetMimeType returns the Content-Type to serve name with, falling back to
// application/octet-stream.
func GetMimeType(name string) string {
	if f, ok := lookup(name); ok {
		return f.mime
	}
	return fallbackMime
}

func IsMedia(name string) bool {
	_, ok := lookup(name)
	return ok
}

func IsVideo(name string) bool {
	return GetFileType(name) == FileTypeVideo
}
