package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName names the tracer and tags every log line
const ServiceName = "taxid-validator"

// Tracer returns the service tracer from tp, falling back to the global
// provider (a no-op until an SDK provider is installed).
func Tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(ServiceName)
}

// RecordError records err on span and marks the span failed
func RecordError(span trace.Span, err error, description string) {
	if err == nil {
		return
	}
	span.RecordError(err, trace.WithAttributes(
		attribute.String("error.description", description),
	))
	span.SetStatus(codes.Error, description)
}
