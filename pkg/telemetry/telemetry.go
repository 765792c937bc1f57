package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// ScopeName is the instrumentation scope used when callers pass an empty name.
const ScopeName = "db-version"

// Attribute is a key/value pair attached to spans and metric points.
type Attribute = attribute.KeyValue

// String returns a string attribute.
func String(key, value string) Attribute {
	return attribute.String(key, value)
}

// ShutdownFunc flushes and closes one signal pipeline.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init wires OTLP gRPC exporters for traces, metrics and logs.
// It reads OTEL_EXPORTER_OTLP_ENDPOINT from the environment; when unset the
// global no-op providers stay in place and the returned functions do nothing.
// OTEL_SERVICE_NAME overrides serviceName.
func Init(ctx context.Context, serviceName string) (ShutdownFunc, ShutdownFunc, ShutdownFunc, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		slog.Warn("otel_endpoint_not_set, telemetry disabled")
		return noopShutdown, noopShutdown, noopShutdown, nil
	}

	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		serviceName = name
	}
	if serviceName == "" {
		serviceName = "unknown-service"
	}

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}

	res := resource.NewSchemaless(
		semconv.ServiceName(serviceName),
	)

	shutdownTracer, err := initTraces(ctx, conn, res)
	if err != nil {
		return nil, nil, nil, err
	}

	shutdownMeter, err := initMetrics(ctx, conn, res)
	if err != nil {
		return shutdownTracer, nil, nil, err
	}

	shutdownLogger, err := initLogs(ctx, conn, res)
	if err != nil {
		return shutdownTracer, shutdownMeter, nil, err
	}

	slog.Info("otel_enabled", "endpoint", endpoint, "service", serviceName)

	return shutdownTracer, shutdownMeter, shutdownLogger, nil
}

// Flush pushes buffered spans, metric points and log records to the collector.
// A Lambda sandbox may be frozen right after the handler returns, so batching
// processors are drained at the end of every invocation.
func Flush(ctx context.Context) error {
	var errs []error
	if tracerProvider != nil {
		if err := tracerProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer flush: %w", err))
		}
	}
	if meterProvider != nil {
		if err := meterProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter flush: %w", err))
		}
	}
	if loggerProvider != nil {
		if err := loggerProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("logger flush: %w", err))
		}
	}
	return errors.Join(errs...)
}
