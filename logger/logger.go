package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"interview_booking_app_go/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the application logger. Output always goes to stdout and,
// when LOG_FILE is set, to a size-rotated file as well.
func New(cfg *config.Config) *slog.Logger {
	var writers []io.Writer
	writers = append(writers, os.Stdout)

	if cfg.LogFile != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	w := io.MultiWriter(writers...)
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.LogLevel),
		AddSource: cfg.Environment == "development",
	}

	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") || cfg.IsProduction() {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(h).With(
		slog.String("service", "interview-booking"),
		slog.String("env", cfg.Environment),
	)
}

// ParseLevel maps a LOG_LEVEL string to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
