// Package media inspects photos and videos staged for display.
//
// The Classifier answers two questions about a local file:
//   - IsLandscape: whether it displays wider than tall, honouring the EXIF
//     orientation tag for photos and the display-matrix rotation reported by
//     ffprobe for videos
//   - Capture: when and where it was taken, from EXIF or container tags,
//     falling back to the file modification time
//
// Video probes run ffprobe under a per-call timeout so a damaged clip cannot
// hang a caller indefinitely.
package media
