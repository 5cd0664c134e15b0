package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"picture-frame/internal/logging"
)

// partialSuffix marks a copy that has not been renamed into place yet.
const partialSuffix = ".partial"

// CopyFile copies src to dst byte for byte, creating missing parent
// directories and preserving the source modification time. The data is
// written to a sibling temporary file and renamed over dst, so readers never
// observe a truncated copy. Opening and stating src go through the NFS retry
// wrappers.
func CopyFile(src, dst string, config RetryConfig) (err error) {
	in, err := OpenWithRetry(src, config)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if closeErr := in.Close(); closeErr != nil {
			logging.Warn("failed to close source file %s: %v", src, closeErr)
		}
	}()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("source %s is a directory", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	tmp := dst + partialSuffix
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer func() {
		if err != nil {
			if removeErr := os.Remove(tmp); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				logging.Warn("failed to remove partial copy %s: %v", tmp, removeErr)
			}
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy data: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	if err = os.Chtimes(tmp, info.ModTime(), info.ModTime()); err != nil {
		logging.Debug("failed to preserve modification time on %s: %v", dst, err)
		err = nil
	}

	if err = os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	return nil
}

// RemoveFile deletes path and then prunes any parent directories left empty,
// stopping at root. A missing file is not an error.
func RemoveFile(path, root string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	root = filepath.Clean(root)
	dir := filepath.Dir(path)
	for dir != root && strings.HasPrefix(dir, root+string(filepath.Separator)) {
		if err := os.Remove(dir); err != nil {
			// Not empty or already gone; either way stop climbing.
			break
		}
		dir = filepath.Dir(dir)
	}

	return nil
}
