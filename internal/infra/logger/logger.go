package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide JSON logger. Dev gets debug level and every
// line is tagged with the service name for log aggregation.
func New(env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", "weekview")
}
