package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	mu       sync.RWMutex
	logger   *slog.Logger
	levelVar = new(slog.LevelVar)
)

// initLogger lazily installs a text handler on stderr at INFO.
func initLogger() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	return SetOutput(os.Stderr)
}

// SetOutput redirects log output. Tests use it to capture lines.
func SetOutput(w io.Writer) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar})
	l := slog.New(handler)

	mu.Lock()
	logger = l
	mu.Unlock()

	slog.SetDefault(l)
	return l
}

// ParseLevel accepts "debug", "info", "warn", "error" (case-insensitive).
// Anything else maps to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(l Level) {
	initLogger()
	switch l {
	case LevelDebug:
		levelVar.Set(slog.LevelDebug)
	case LevelWarn:
		levelVar.Set(slog.LevelWarn)
	case LevelError:
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

// Logger returns the underlying slog logger, for libraries that want one.
func Logger() *slog.Logger {
	return initLogger()
}

func Debug(msg string, kv ...any) {
	initLogger().Debug(msg, kv...)
}

func Info(msg string, kv ...any) {
	initLogger().Info(msg, kv...)
}

func Warn(msg string, kv ...any) {
	initLogger().Warn(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	initLogger().Error(msg, extended...)
}
