package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/xjanova/smschecker-sub001/internal/config"
)

func NewLogger(cfg config.LogConfig) *slog.Logger {
	return newLogger(cfg, nil)
}

// NewLoggerTo is NewLogger with an explicit destination.
func NewLoggerTo(cfg config.LogConfig, w io.Writer) *slog.Logger {
	return newLogger(cfg, w)
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
		if strings.EqualFold(cfg.LogOutput, "stderr") {
			w = os.Stderr
		}
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
