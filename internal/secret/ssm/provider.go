// Package ssm implements a parameter lookup backed by AWS Systems Manager
// Parameter Store.
package ssm

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/smithy-go"

	"github.com/blueberrycongee/paramsecret/internal/secret"
)

// CodeParameterNotFound is the error code reported for missing parameters.
const CodeParameterNotFound = "ParameterNotFound"

// API is the subset of the SSM client used by Provider.
type API interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Config holds configuration for the SSM provider.
// Empty fields fall back to the default AWS credential and region chain,
// which picks up the container or instance role.
type Config struct {
	Region      string
	Endpoint    string // custom endpoint, e.g. LocalStack
	AccessKeyID string
	SecretKey   string
}

// Provider implements secret.ParameterLookup for SSM Parameter Store.
type Provider struct {
	client API
}

// New creates a new SSM provider from cfg.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	opts := []func(*config.LoadOptions) error{}

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ssm: failed to load AWS config: %w", err)
	}

	ssmOpts := []func(*ssm.Options){}
	if cfg.Endpoint != "" {
		ssmOpts = append(ssmOpts, func(o *ssm.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return NewWithClient(ssm.NewFromConfig(awsCfg, ssmOpts...)), nil
}

// NewWithClient creates a provider around an existing client.
func NewWithClient(client API) *Provider {
	return &Provider{client: client}
}

// Lookup fetches name with decryption requested and returns its plaintext value.
func (p *Provider) Lookup(ctx context.Context, name string) (string, error) {
	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", secret.NewLookupError(name, errorCode(err), err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", secret.NewLookupError(name, "", errors.New("ssm returned no parameter value"))
	}
	return aws.ToString(out.Parameter.Value), nil
}

func errorCode(err error) string {
	var notFound *types.ParameterNotFound
	if errors.As(err, &notFound) {
		return CodeParameterNotFound
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
