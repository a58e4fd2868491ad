package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// NewLogger creates a structured zap logger. Production environments get the
// JSON encoder; everything else gets the human-readable console encoder. Both
// write to stderr so stdout carries only command output.
func NewLogger(level, environment string) (*zap.Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(normalizeLevel(level))
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.Level = atomicLevel
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	return logger.With(zap.String("service", ServiceName)), nil
}

func normalizeLevel(level string) string {
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case "warning":
		return "warn"
	case "":
		return "info"
	default:
		return l
	}
}

// WithContext returns a logger that carries the trace and span IDs found in ctx
func WithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return logger
	}

	fields := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	}

	if span.SpanContext().IsSampled() {
		fields = append(fields, zap.Bool("sampled", true))
	}

	return logger.With(fields...)
}
