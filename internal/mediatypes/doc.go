// Package mediatypes provides shared type definitions and utilities for
// recognizing displayable media across the picture frame.
//
// This package is a dependency-free foundation that can be imported by the
// library indexer, the staging cache and the HTTP layer without creating
// import cycles.
//
// # Extension Detection
//
// All helpers accept either a bare extension or a full path:
//
//	if mediatypes.IsMedia("2019/beach.JPG") {
//	    // eligible for the frame
//	}
//
//	switch mediatypes.GetFileType(path) {
//	case mediatypes.FileTypeImage:
//	    // render with <img>
//	case mediatypes.FileTypeVideo:
//	    // render with <video>
//	}
//
// # MIME Types
//
// Use GetMimeType to pick the Content-Type for HTTP responses:
//
//	mimeType := mediatypes.GetMimeType(path) // e.g., "image/jpeg"
package mediatypes
