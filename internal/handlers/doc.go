// Package handlers provides the HTTP surface of the picture frame.
//
// It includes handlers for:
//   - The self-refreshing frame page and the cached media it shows
//   - The next-item JSON API used by custom displays
//   - Excluding files and reading their stored metadata
//   - Cache control: status, fill, clean, and stopping the application
//   - Health checks and version information
package handlers
