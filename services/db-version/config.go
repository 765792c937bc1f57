package main

import (
	"dbprobe/pkg/env"
	"dbprobe/pkg/secrets"
)

// Config holds the function's settings, read from the environment.
type Config struct {
	SecretName    string
	SecretBackend string
	BaoMount      string
	Namespace     string
	// Engine forces the database engine; empty means derive it from the secret.
	Engine string
}

// LoadConfig reads Config from environment variables.
func LoadConfig() Config {
	return Config{
		SecretName:    env.Get("SECRET_NAME", "your_secret_name"),
		SecretBackend: env.Get("SECRET_BACKEND", secrets.BackendAWS),
		BaoMount:      env.Get("BAO_MOUNT", "secret"),
		Namespace:     env.Get("K8S_NAMESPACE", "default"),
		Engine:        env.Get("DB_ENGINE", ""),
	}
}

// SecretsConfig returns the subset used to build the secret store.
func (c Config) SecretsConfig() secrets.Config {
	return secrets.Config{
		Backend:   c.SecretBackend,
		BaoMount:  c.BaoMount,
		Namespace: c.Namespace,
	}
}
