package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"dbprobe/pkg/db"
	"dbprobe/pkg/env"
	"dbprobe/pkg/logger"
	"dbprobe/pkg/secrets"
	"dbprobe/pkg/telemetry"
)

const serviceName = "db-version"

// Response is the invocation result handed back to the Lambda runtime.
// Body holds a JSON-encoded string.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// App holds dependencies for the db-version function
type App struct {
	Config           Config
	SecretProviderFn func(ctx context.Context) (secrets.SecretStore, error)
	ConnectFn        func(ctx context.Context, engine string, creds secrets.Credentials) (db.Prober, error)
}

// NewApp wires the production secret store and database connectors.
func NewApp(cfg Config) *App {
	return &App{
		Config: cfg,
		SecretProviderFn: func(ctx context.Context) (secrets.SecretStore, error) {
			return secrets.NewStore(ctx, cfg.SecretsConfig())
		},
		ConnectFn: db.Connect,
	}
}

func main() {
	env.Load()
	logger.Setup(os.Stdout, serviceName, os.Getenv("LOG_LEVEL"))

	ctx := context.Background()

	shutdownTracer, shutdownMeter, shutdownLogger, err := telemetry.Init(ctx, serviceName)
	if err != nil {
		slog.Warn("otel_init_failed, continuing without full observability", "error", err)
	}
	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for component, fn := range map[string]telemetry.ShutdownFunc{
			"tracer": shutdownTracer,
			"meter":  shutdownMeter,
			"logger": shutdownLogger,
		} {
			if fn == nil {
				continue
			}
			if err := fn(shutdownCtx); err != nil {
				slog.Error("otel_shutdown_failed", "component", component, "error", err)
			}
		}
	}

	app := NewApp(LoadConfig())

	// Outside the Lambda runtime, invoke once and print the result.
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") == "" {
		resp, _ := app.Handle(ctx, nil)
		writeResponse(os.Stdout, resp)
		shutdown()
		if resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		return
	}

	lambda.StartWithOptions(app.Handle, lambda.WithEnableSIGTERM(shutdown))
}

// Handle serves one invocation. Every failure is converted into a 500
// response; the returned error is always nil so the runtime never retries.
func (a *App) Handle(ctx context.Context, event json.RawMessage) (Response, error) {
	defer a.flush(ctx)

	tracer := telemetry.GetTracer("db.version")
	meter := telemetry.GetMeter("db.version")

	invocationsCounter, _ := telemetry.NewInt64Counter(meter, "dbversion.invocations.total", "Total invocations by outcome")
	durationHist, _ := telemetry.NewInt64Histogram(meter, "dbversion.duration.ms", "Invocation duration in milliseconds", "ms")

	start := time.Now()
	ctx, span := tracer.Start(ctx, "handler.invoke")
	defer span.End()

	log := slog.Default()
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		log = log.With("request_id", lc.AwsRequestID)
	}
	ctx = logger.WithContext(ctx, log)

	var resp Response
	status := "success"

	version, err := a.probe(ctx, log)
	if err != nil {
		status = "failure"
		telemetry.RecordError(span, err)
		log.Error("handler_failed", "error", err)
		resp = Response{
			StatusCode: http.StatusInternalServerError,
			Body:       encodeBody("Error: " + err.Error()),
		}
	} else {
		log.Info("database_version", "version", version)
		resp = Response{
			StatusCode: http.StatusOK,
			Body:       encodeBody("Database version: " + version),
		}
	}

	if invocationsCounter != nil {
		telemetry.AddInt64Counter(ctx, invocationsCounter, 1, telemetry.String("status", status))
	}
	if durationHist != nil {
		telemetry.RecordInt64Histogram(ctx, durationHist, time.Since(start).Milliseconds(), telemetry.String("status", status))
	}

	return resp, nil
}

// probe fetches the credentials, opens the connection and runs the version query.
// The connection is released on every path once it has been opened.
func (a *App) probe(ctx context.Context, log *slog.Logger) (string, error) {
	store, err := a.SecretProviderFn(ctx)
	if err != nil {
		return "", fmt.Errorf("secret_provider_init_failed: %w", err)
	}
	defer store.Close()

	creds, err := a.credentials(ctx, store)
	if err != nil {
		return "", err
	}

	engine, err := db.ResolveEngine(a.Config.Engine, creds.Engine)
	if err != nil {
		return "", err
	}

	prober, err := a.ConnectFn(ctx, engine, creds)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := prober.Close(); err != nil {
			log.Warn("db_close_failed", "engine", engine, "error", err)
		}
	}()

	log.Debug("db_connected", "engine", engine, "credentials", creds)

	return prober.Version(ctx)
}

func (a *App) credentials(ctx context.Context, store secrets.SecretStore) (secrets.Credentials, error) {
	ctx, span := telemetry.GetTracer("db.version").Start(ctx, "secrets.get_credentials", telemetry.WithAttributes(
		telemetry.String("secret.name", a.Config.SecretName),
		telemetry.String("secret.backend", a.Config.SecretBackend),
	))
	defer span.End()

	creds, err := secrets.GetCredentials(ctx, store, a.Config.SecretName)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return creds, err
}

// flush drains telemetry before the sandbox is frozen. It outlives the
// invocation context, which may already be cancelled.
func (a *App) flush(ctx context.Context) {
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := telemetry.Flush(flushCtx); err != nil {
		slog.Warn("otel_flush_failed", "error", err)
	}
}

// writeResponse prints resp for local runs.
func writeResponse(w io.Writer, resp Response) {
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("response_encode_failed", "error", err)
	}
}

func encodeBody(msg string) string {
	b, _ := json.Marshal(msg)
	return string(b)
}
