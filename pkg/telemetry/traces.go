package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

var tracerProvider *sdktrace.TracerProvider

// GetTracer returns a tracer with the provided name.
func GetTracer(name string) trace.Tracer {
	if name == "" {
		name = ScopeName
	}
	return otel.Tracer(name)
}

// WithAttributes returns a SpanStartOption that sets the provided attributes.
func WithAttributes(attrs ...Attribute) trace.SpanStartOption {
	return trace.WithAttributes(attrs...)
}

// RecordError marks the span as failed and attaches err.
func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func initTraces(ctx context.Context, conn *grpc.ClientConn, res *resource.Resource) (ShutdownFunc, error) {
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	tracerProvider = tp

	return tp.Shutdown, nil
}
