package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/blueberrycongee/paramsecret/internal/api"
	"github.com/blueberrycongee/paramsecret/internal/config"
	"github.com/blueberrycongee/paramsecret/internal/secret"
	"github.com/blueberrycongee/paramsecret/internal/secret/env"
	"github.com/blueberrycongee/paramsecret/internal/secret/ssm"
	"github.com/blueberrycongee/paramsecret/internal/secret/vault"
)

// newLookup builds the parameter store client selected by cfg.Store.Backend.
func newLookup(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (secret.ParameterLookup, error) {
	switch cfg.Backend {
	case config.BackendSSM:
		return ssm.New(ctx, ssm.Config{
			Region:      cfg.SSM.Region,
			Endpoint:    cfg.SSM.Endpoint,
			AccessKeyID: cfg.SSM.AccessKeyID,
			SecretKey:   cfg.SSM.SecretAccessKey,
		})
	case config.BackendVault:
		return vault.New(vault.Config{
			Address:    cfg.Vault.Address,
			AuthMethod: cfg.Vault.AuthMethod,
			Token:      cfg.Vault.Token,
			RoleID:     cfg.Vault.RoleID,
			SecretID:   cfg.Vault.SecretID,
			CACert:     cfg.Vault.CACert,
			ClientCert: cfg.Vault.ClientCert,
			ClientKey:  cfg.Vault.ClientKey,
		}, logger)
	case config.BackendEnv:
		return env.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Backend)
	}
}

// storeEndpoint returns the configured store address for logging.
// Empty means the backend's default endpoint.
func storeEndpoint(cfg config.StoreConfig) string {
	switch cfg.Backend {
	case config.BackendSSM:
		return cfg.SSM.Endpoint
	case config.BackendVault:
		return cfg.Vault.Address
	default:
		return ""
	}
}

func buildBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger, tracer trace.Tracer) (*api.Backend, error) {
	lookup, err := newLookup(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("create %s parameter store: %w", cfg.Store.Backend, err)
	}

	instrumented := secret.Instrument(lookup, cfg.Store.Backend, logger, tracer)

	resolver, err := secret.NewResolver(cfg.Secrets.ResolverConfig(), instrumented)
	if err != nil {
		_ = instrumented.Close()
		return nil, err
	}
	return api.NewBackend(resolver, io.Closer(instrumented)), nil
}
