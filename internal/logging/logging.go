package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// LogLevel orders message severity; higher values are more severe.
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

var (
	level     atomic.Int32
	levelInit sync.Once
)

// fromEnv resolves the starting level. DEBUG set to a truthy value forces
// debug output regardless of LOG_LEVEL.
func fromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("DEBUG")) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

func ensureLevel() {
	levelInit.Do(func() { level.Store(int32(fromEnv())) })
}

// ParseLevel maps a level name to a LogLevel. "warning" is accepted as an
// alias; anything unrecognized yields LevelInfo.
func ParseLevel(name string) LogLevel {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		return LevelWarn
	}
	for l, n := range levelNames {
		if n == name {
			return LogLevel(l)
		}
	}
	return LevelInfo
}

func GetLevel() LogLevel {
	ensureLevel()
	return LogLevel(level.Load())
}

// SetLevel replaces the level taken from the environment.
func SetLevel(l LogLevel) {
	ensureLevel()
	level.Store(int32(l))
}

func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

// Log emits a message prefixed with the upper-cased level name when l is
// at or above the configured level.
func Log(l LogLevel, format string, args ...interface{}) {
	if l < GetLevel() {
		return
	}
	log.Printf("["+strings.ToUpper(l.String())+"] "+format, args...)
}

func Debug(format string, args ...interface{}) { Log(LevelDebug, format, args...) }
func Info(format string, args ...interface{})  { Log(LevelInfo, format, args...) }
func Warn(format string, args ...interface{})  { Log(LevelWarn, format, args...) }
func Error(format string, args ...interface{}) { Log(LevelError, format, args...) }

// Fatal logs and exits with status 1.
func Fatal(format string, args ...interface{}) {
	log.Fatalf("[FATAL] "+format, args...)
}

// Printf writes unconditionally, without a level prefix. Used for banners.
func Printf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

func (l LogLevel) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("unknown(%d)", l)
}
