package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/vault/api"

	"dbprobe/pkg/telemetry"
)

type vaultKVv2 interface {
	Get(ctx context.Context, path string) (*api.KVSecret, error)
}

// BaoProvider implements the SecretStore interface for OpenBao.
type BaoProvider struct {
	client *api.Client
	kv     vaultKVv2
}

// NewBaoProvider initializes a new OpenBao client using environment variables.
// It expects BAO_ADDR and BAO_TOKEN to be set. mount names the KV v2 engine
// and defaults to "secret".
func NewBaoProvider(mount string) (*BaoProvider, error) {
	config := api.DefaultConfig()
	if config.Error != nil {
		return nil, fmt.Errorf("failed to read openbao config: %w", config.Error)
	}

	// Use BAO_ADDR if set, otherwise fallback to VAULT_ADDR logic in SDK
	if addr := os.Getenv("BAO_ADDR"); addr != "" {
		config.Address = addr
	}
	config.HttpClient.Transport = telemetry.WrapTransport(config.HttpClient.Transport)

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create openbao client: %w", err)
	}

	if token := os.Getenv("BAO_TOKEN"); token != "" {
		client.SetToken(token)
	}

	if mount == "" {
		mount = "secret"
	}

	return &BaoProvider{client: client, kv: client.KVv2(mount)}, nil
}

// GetSecretString reads the KV v2 secret at path and re-encodes its data as JSON.
func (b *BaoProvider) GetSecretString(ctx context.Context, path string) (string, error) {
	secret, err := b.kv.Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read openbao secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("openbao secret %q has no data", path)
	}

	raw, err := json.Marshal(secret.Data)
	if err != nil {
		return "", fmt.Errorf("failed to encode openbao secret: %w", err)
	}
	return string(raw), nil
}

// Close is a placeholder for cleaning up resources if needed.
func (b *BaoProvider) Close() error {
	return nil
}
