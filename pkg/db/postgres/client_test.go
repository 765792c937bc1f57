package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"

	"dbprobe/pkg/secrets"
)

// --- Mock SQL Driver ---

type mockDriver struct{}

func (d mockDriver) Open(name string) (driver.Conn, error) {
	if strings.Contains(name, "host=fail-connect") {
		return nil, errors.New("connection failed")
	}
	return &mockConn{}, nil
}

type mockConn struct{}

func (c *mockConn) Prepare(query string) (driver.Stmt, error) { return nil, nil }
func (c *mockConn) Close() error                              { return nil }
func (c *mockConn) Begin() (driver.Tx, error)                 { return nil, nil }

func init() {
	sql.Register("mock-postgres", &mockDriver{})
}

func TestConnect(t *testing.T) {
	creds := secrets.Credentials{
		Host:     "localhost",
		Port:     "5432",
		Database: "db",
		Username: "user",
		Password: "pass",
	}

	t.Run("Success", func(t *testing.T) {
		db, err := Connect(context.Background(), "mock-postgres", creds)
		if err != nil {
			t.Fatalf("Expected success, got error: %v", err)
		}
		if db == nil {
			t.Fatal("Expected db instance, got nil")
		}
		defer db.Close()
	})

	t.Run("Unknown Driver", func(t *testing.T) {
		_, err := Connect(context.Background(), "unknown-driver", creds)
		if err == nil {
			t.Error("Expected error for unknown driver, got nil")
		}
	})

	t.Run("Ping Failure", func(t *testing.T) {
		bad := creds
		bad.Host = "fail-connect"
		_, err := Connect(context.Background(), "mock-postgres", bad)
		if err == nil || !strings.Contains(err.Error(), "failed to ping postgres") {
			t.Errorf("Expected ping error, got %v", err)
		}
	})

	t.Run("DSN Failure", func(t *testing.T) {
		_, err := Connect(context.Background(), "mock-postgres", secrets.Credentials{})
		if err == nil {
			t.Error("Expected error due to missing credentials, got nil")
		}
	})
}

func TestDSN(t *testing.T) {
	t.Setenv("DB_SSLMODE", "")

	tests := []struct {
		name    string
		sslmode string
		creds   secrets.Credentials
		want    string
	}{
		{
			name:  "Default Port And SSL",
			creds: secrets.Credentials{Host: "pg-host", Database: "homelab", Username: "server", Password: "pw"},
			want:  "host=pg-host port=5432 user=server password=pw dbname=homelab sslmode=require timezone=UTC",
		},
		{
			name:    "Explicit Port And SSL Override",
			sslmode: "disable",
			creds:   secrets.Credentials{Host: "pg-host", Port: "30432", Database: "homelab", Username: "server", Password: "pw"},
			want:    "host=pg-host port=30432 user=server password=pw dbname=homelab sslmode=disable timezone=UTC",
		},
		{
			name:  "Quoted Password",
			creds: secrets.Credentials{Host: "h", Database: "d", Username: "u", Password: `it's a \secret`},
			want:  `host=h port=5432 user=u password='it\'s a \\secret' dbname=d sslmode=require timezone=UTC`,
		},
		{
			name:  "Empty Password",
			creds: secrets.Credentials{Host: "h", Database: "d", Username: "u"},
			want:  "host=h port=5432 user=u password='' dbname=d sslmode=require timezone=UTC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_SSLMODE", tt.sslmode)

			got, err := DSN(tt.creds)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDSN_MissingCredentials(t *testing.T) {
	_, err := DSN(secrets.Credentials{Host: "h"})
	if err == nil {
		t.Fatal("Expected error for missing credentials, got nil")
	}
}
