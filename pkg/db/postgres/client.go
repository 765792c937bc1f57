package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"dbprobe/pkg/env"
	"dbprobe/pkg/secrets"
)

const (
	// DriverName is the database/sql name registered by lib/pq.
	DriverName = "postgres"

	// VersionQuery returns the PostgreSQL version banner.
	VersionQuery = "SELECT version();"
)

// Internal variables for testing
var (
	sqlOpen = sql.Open
)

// Connect establishes a connection to PostgreSQL and verifies it with a Ping.
func Connect(ctx context.Context, driverName string, creds secrets.Credentials) (*sql.DB, error) {
	dsn, err := DSN(creds)
	if err != nil {
		return nil, err
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// DSN constructs a key/value connection string. The port defaults to 5432 and
// sslmode is taken from DB_SSLMODE (default "require").
func DSN(creds secrets.Credentials) (string, error) {
	if creds.Host == "" || creds.Username == "" || creds.Database == "" {
		return "", fmt.Errorf("missing required database credentials (host, username, or database)")
	}

	port := string(creds.Port)
	if port == "" {
		port = "5432"
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s timezone=UTC",
		quote(creds.Host), quote(port), quote(creds.Username), quote(creds.Password),
		quote(creds.Database), quote(env.Get("DB_SSLMODE", "require")),
	), nil
}

// quote escapes a value for the libpq key/value format.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
