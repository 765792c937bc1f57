package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"

	"dbprobe/pkg/secrets"
)

const (
	// DriverName is the database/sql name registered by go-mssqldb.
	DriverName = "sqlserver"

	// VersionQuery returns the full SQL Server version banner.
	VersionQuery = "SELECT @@VERSION;"
)

// Internal variables for testing
var (
	sqlOpen = sql.Open
)

// Connect opens a SQL Server connection and verifies it with a Ping.
// The handle is limited to a single connection and closed again if the ping fails.
func Connect(ctx context.Context, driverName string, creds secrets.Credentials) (*sql.DB, error) {
	dsn, err := DSN(creds)
	if err != nil {
		return nil, err
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlserver connection: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlserver: %w", err)
	}

	return db, nil
}

// DSN builds a sqlserver:// URL. The host may carry a named instance
// ("host\SQLEXPRESS"), an ODBC style port ("host,1433") or both
// ("host\SQLEXPRESS,1433").
func DSN(creds secrets.Credentials) (string, error) {
	if creds.Host == "" {
		return "", fmt.Errorf("missing required database credential: host")
	}

	host := creds.Host
	port := string(creds.Port)
	if i := strings.LastIndex(host, ","); i >= 0 {
		host, port = host[:i], strings.TrimSpace(host[i+1:])
	}

	var instance string
	if i := strings.Index(host, `\`); i >= 0 {
		host, instance = host[:i], host[i+1:]
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	}

	query := url.Values{}
	if creds.Database != "" {
		query.Set("database", creds.Database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(creds.Username, creds.Password),
		Host:     host,
		RawQuery: query.Encode(),
	}
	if instance != "" {
		u.Path = instance
	}

	return u.String(), nil
}
