package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type ctxKey struct{}

// Setup initializes the global slog logger to output JSON to the provided writer.
// Every entry carries a permanent "service" field. level accepts debug, info,
// warn or error; anything else means info.
func Setup(w io.Writer, serviceName, level string) {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	handler := slog.NewJSONHandler(w, opts).
		WithAttrs([]slog.Attr{
			slog.String("service", serviceName),
		})

	slog.SetDefault(slog.New(handler))
}

// ParseLevel maps a LOG_LEVEL style string to a slog level.
func ParseLevel(level string) slog.Level {
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

// WithContext returns a copy of ctx carrying l, so packages below the handler
// log with the same invocation attributes (request_id).
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored by WithContext, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
