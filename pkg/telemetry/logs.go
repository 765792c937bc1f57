package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	otellogglobal "go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	"google.golang.org/grpc"
)

var loggerProvider *sdklog.LoggerProvider

// initLogs exports log records over OTLP and mirrors them to stdout so they
// still reach CloudWatch. The default slog logger is replaced by the bridge.
func initLogs(ctx context.Context, conn *grpc.ClientConn, res *resource.Resource) (ShutdownFunc, error) {
	logExporter, err := otlploggrpc.New(ctx, otlploggrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}

	consoleExporter, err := stdoutlog.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout log exporter: %w", err)
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithProcessor(sdklog.NewSimpleProcessor(consoleExporter)),
		sdklog.WithResource(res),
	)
	otellogglobal.SetLoggerProvider(lp)
	loggerProvider = lp

	slog.SetDefault(slog.New(otelslog.NewHandler(ScopeName, otelslog.WithLoggerProvider(lp))))

	return lp.Shutdown, nil
}
