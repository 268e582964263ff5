// Package logging configures log/slog for the checker service.
//
// Request-scoped loggers carry chi's request ID and, once a handler has
// resolved it, the dataset being checked, so every entry of one check can be
// correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const datasetKey ctxKey = "log_dataset"

// Setup installs the global logger.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger writing to w.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// WithDataset records the dataset handled by a request.
func WithDataset(ctx context.Context, datasetID string) context.Context {
	return context.WithValue(ctx, datasetKey, datasetID)
}

// FromContext returns the default logger enriched with the request ID and
// dataset stored in ctx, if any.
//
//	logger := logging.FromContext(r.Context())
//	logger.Info("check queued", "rows", n)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if id, ok := ctx.Value(datasetKey).(string); ok && id != "" {
		logger = logger.With("dataset", id)
	}

	return logger
}

// WithFields returns a request logger with additional structured fields.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
