package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSProvider implements the SecretStore interface for AWS Secrets Manager.
type AWSProvider struct {
	client secretsManagerAPI
}

// NewAWSProvider builds a Secrets Manager client from the default credential chain
// (the Lambda execution role when deployed, AWS_PROFILE or env keys locally).
// The SDK's own HTTP client must stay in place for AWS_CA_BUNDLE to apply.
func NewAWSProvider(ctx context.Context) (*AWSProvider, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	otelaws.AppendMiddlewares(&cfg.APIOptions)

	return &AWSProvider{client: secretsmanager.NewFromConfig(cfg)}, nil
}

// GetSecretString returns the SecretString of the current version of name.
func (p *AWSProvider) GetSecretString(ctx context.Context, name string) (string, error) {
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret value: %w", err)
	}

	if out.SecretString == nil {
		return "", fmt.Errorf("secret %q has no string value", name)
	}

	return aws.ToString(out.SecretString), nil
}

// Close is a no-op; the SDK client holds no connection state of its own.
func (p *AWSProvider) Close() error {
	return nil
}
