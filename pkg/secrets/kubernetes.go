package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// KubernetesProvider implements the SecretStore interface on top of Kubernetes Secrets.
type KubernetesProvider struct {
	client    kubernetes.Interface
	namespace string
}

// NewKubernetesProvider uses the in-cluster service account, falling back to KUBECONFIG.
func NewKubernetesProvider(namespace string) (*KubernetesProvider, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		cfg, err = clientcmd.BuildConfigFromFlags("", os.Getenv("KUBECONFIG"))
		if err != nil {
			return nil, fmt.Errorf("failed to build kubernetes config: %w", err)
		}
	}

	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	if namespace == "" {
		namespace = "default"
	}

	return &KubernetesProvider{client: client, namespace: namespace}, nil
}

// GetSecretString reads the Secret called name; each data key becomes a JSON field.
func (k *KubernetesProvider) GetSecretString(ctx context.Context, name string) (string, error) {
	secret, err := k.client.CoreV1().Secrets(k.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get kubernetes secret: %w", err)
	}

	fields := make(map[string]string, len(secret.Data)+len(secret.StringData))
	for key, value := range secret.Data {
		fields[key] = string(value)
	}
	for key, value := range secret.StringData {
		fields[key] = value
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode kubernetes secret: %w", err)
	}
	return string(raw), nil
}

// Close is a no-op.
func (k *KubernetesProvider) Close() error {
	return nil
}
