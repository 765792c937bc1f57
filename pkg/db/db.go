package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dbprobe/pkg/db/mongodb"
	"dbprobe/pkg/db/mssql"
	"dbprobe/pkg/db/postgres"
	"dbprobe/pkg/logger"
	"dbprobe/pkg/secrets"
	"dbprobe/pkg/telemetry"
)

// Supported database engines.
const (
	EngineSQLServer = "sqlserver"
	EnginePostgres  = "postgres"
	EngineMongoDB   = "mongodb"
)

// Prober reports the server version of an open database connection.
type Prober interface {
	Version(ctx context.Context) (string, error)
	Close() error
}

// Internal variables for testing
var (
	connectSQLServer = mssql.Connect
	connectPostgres  = postgres.Connect
	connectMongo     = mongodb.Connect
)

// ResolveEngine picks the engine to connect with. An explicit configuration
// wins; otherwise the RDS "engine" field of the secret decides, and SQL Server
// is assumed when neither is set.
func ResolveEngine(configured, fromSecret string) (string, error) {
	if configured != "" {
		return strings.ToLower(configured), nil
	}

	switch e := strings.ToLower(fromSecret); {
	case e == "":
		return EngineSQLServer, nil
	case strings.HasPrefix(e, "sqlserver"):
		return EngineSQLServer, nil
	case e == "postgres", e == "aurora-postgresql":
		return EnginePostgres, nil
	case e == "mongo", e == "mongodb", e == "docdb":
		return EngineMongoDB, nil
	default:
		return "", fmt.Errorf("unsupported engine %q in secret", fromSecret)
	}
}

// Connect opens one connection for engine using creds and verifies it.
func Connect(ctx context.Context, engine string, creds secrets.Credentials) (Prober, error) {
	p, err := connect(ctx, engine, creds)
	if err != nil {
		logger.FromContext(ctx).Error("db_connection_failed", "engine", engine, "credentials", creds, "error", err)
		return nil, err
	}
	return p, nil
}

func connect(ctx context.Context, engine string, creds secrets.Credentials) (Prober, error) {
	switch engine {
	case EngineSQLServer:
		conn, err := connectSQLServer(ctx, mssql.DriverName, creds)
		if err != nil {
			return nil, err
		}
		return NewSQLProber(conn, "mssql", mssql.VersionQuery), nil
	case EnginePostgres:
		conn, err := connectPostgres(ctx, postgres.DriverName, creds)
		if err != nil {
			return nil, err
		}
		return NewSQLProber(conn, "postgresql", postgres.VersionQuery), nil
	case EngineMongoDB:
		store, err := connectMongo(ctx, creds)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database engine %q", engine)
	}
}

var sqlTracer = telemetry.GetTracer("db/sql")

// SQLProber runs a fixed version query over a database/sql handle.
type SQLProber struct {
	DB     *sql.DB
	System string
	Query  string
}

// NewSQLProber creates a new SQLProber. system is the OpenTelemetry db.system value.
func NewSQLProber(db *sql.DB, system, query string) *SQLProber {
	return &SQLProber{DB: db, System: system, Query: query}
}

// Version returns the first column of the first row produced by the query.
func (p *SQLProber) Version(ctx context.Context) (string, error) {
	ctx, span := sqlTracer.Start(ctx, "db.query.version", telemetry.WithAttributes(
		telemetry.String("db.system", p.System),
		telemetry.String("db.statement", p.Query),
	))
	defer span.End()

	var version sql.NullString
	err := p.DB.QueryRowContext(ctx, p.Query).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("version query returned no rows")
		telemetry.RecordError(span, err)
		return "", err
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return "", fmt.Errorf("version query failed: %w", err)
	}
	return version.String, nil
}

// Close releases the underlying connection.
func (p *SQLProber) Close() error {
	return p.DB.Close()
}
