package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Level comes from
// AFYA_LOG_LEVEL (debug/info/warn/error), defaulting to info.
func New() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("AFYA_LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
