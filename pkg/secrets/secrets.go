package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"dbprobe/pkg/logger"
)

// Supported secret backends.
const (
	BackendAWS        = "aws"
	BackendBao        = "bao"
	BackendKubernetes = "kubernetes"
)

// SecretStore defines the interface for retrieving sensitive configuration.
type SecretStore interface {
	// GetSecretString returns the raw, JSON-encoded secret stored under name.
	GetSecretString(ctx context.Context, name string) (string, error)

	// Close cleans up any active connections to the secret store.
	Close() error
}

// Config selects and configures a SecretStore.
type Config struct {
	Backend   string
	BaoMount  string
	Namespace string
}

// NewStore builds the SecretStore named by cfg.Backend. An empty backend means AWS.
func NewStore(ctx context.Context, cfg Config) (SecretStore, error) {
	switch cfg.Backend {
	case "", BackendAWS:
		return NewAWSProvider(ctx)
	case BackendBao:
		return NewBaoProvider(cfg.BaoMount)
	case BackendKubernetes:
		return NewKubernetesProvider(cfg.Namespace)
	default:
		return nil, fmt.Errorf("unknown secret backend %q", cfg.Backend)
	}
}

// Credentials is the database login bundle stored in a secret.
type Credentials struct {
	Host     string `json:"host"`
	Port     Port   `json:"port,omitempty"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	// Engine is set on secrets managed by RDS ("sqlserver-se", "postgres", ...).
	Engine string `json:"engine,omitempty"`
}

// LogValue keeps the password out of log output.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("host", c.Host),
		slog.String("port", string(c.Port)),
		slog.String("database", c.Database),
		slog.String("username", c.Username),
	)
}

// GetCredentials retrieves the secret called name and decodes it.
func GetCredentials(ctx context.Context, store SecretStore, name string) (Credentials, error) {
	var creds Credentials
	log := logger.FromContext(ctx)

	raw, err := store.GetSecretString(ctx, name)
	if err != nil {
		log.Error("secret_retrieval_failed", "secret", name, "error", err)
		return creds, err
	}

	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		log.Error("secret_decode_failed", "secret", name, "error", err)
		return creds, fmt.Errorf("failed to decode secret %q: %w", name, err)
	}

	return creds, nil
}

// Port accepts both 1433 and "1433"; RDS-managed secrets use a number while
// hand-written ones and Kubernetes data are always strings.
type Port string

// UnmarshalJSON implements json.Unmarshaler.
func (p *Port) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Port(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid port %s: %w", data, err)
	}
	*p = Port(n.String())
	return nil
}
