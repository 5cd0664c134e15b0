package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig configures the optional rotating log file.
type FileConfig struct {
	// Path of the log file. Empty disables file output.
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultFileConfig returns rotation settings suited to a small always-on device.
func DefaultFileConfig(path string) FileConfig {
	return FileConfig{
		Path:       path,
		MaxSizeMB:  16,
		MaxBackups: 3,
		MaxAgeDays: 14,
	}
}

// SetupOutput routes log output to stderr and, when configured, to a rotating
// file. The returned closer releases the file and must be called on shutdown.
func SetupOutput(cfg FileConfig) io.Closer {
	if cfg.Path == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	log.SetOutput(io.MultiWriter(os.Stderr, fileWriter))
	return fileWriter
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
