package logger

import (
	"log/slog"
	"os"
	"strings"
)

var level = new(slog.LevelVar)

func InitLogger() {
	slog.SetDefault(New())
}

// New returns a JSON logger that shares the process log level.
func New() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(&RequestIDHandler{Handler: handler})
}

// SetLevel accepts debug, info, warn or error. Anything else means info.
func SetLevel(name string) {
	switch strings.ToLower(name) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}
