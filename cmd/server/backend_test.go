package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/blueberrycongee/paramsecret/internal/api"
	"github.com/blueberrycongee/paramsecret/internal/config"
	"github.com/blueberrycongee/paramsecret/internal/observability"
	"github.com/blueberrycongee/paramsecret/internal/secret/env"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func TestNewLookup_SelectsBackend(t *testing.T) {
	lookup, err := newLookup(context.Background(), config.StoreConfig{Backend: config.BackendEnv}, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &env.Provider{}, lookup)

	_, err = newLookup(context.Background(), config.StoreConfig{Backend: "consul"}, quietLogger())
	require.Error(t, err)
}

func TestNewLookup_VaultTokenRequired(t *testing.T) {
	_, err := newLookup(context.Background(), config.StoreConfig{
		Backend: config.BackendVault,
		Vault:   config.VaultConfig{Address: "http://127.0.0.1:1", AuthMethod: "token"},
	}, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a token")
}

func TestNewLookup_VaultLoginFailure(t *testing.T) {
	t.Setenv("VAULT_MAX_RETRIES", "0")

	_, err := newLookup(context.Background(), config.StoreConfig{
		Backend: config.BackendVault,
		Vault: config.VaultConfig{
			Address:    "http://127.0.0.1:1",
			AuthMethod: "approle",
			RoleID:     "role",
			SecretID:   "secret",
		},
	}, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vault login (approle)")
}

func TestStoreEndpoint(t *testing.T) {
	assert.Equal(t, "http://localstack:4566", storeEndpoint(config.StoreConfig{
		Backend: config.BackendSSM,
		SSM:     config.SSMConfig{Endpoint: "http://localstack:4566"},
	}))
	assert.Equal(t, "https://vault:8200", storeEndpoint(config.StoreConfig{
		Backend: config.BackendVault,
		Vault:   config.VaultConfig{Address: "https://vault:8200"},
	}))
	assert.Empty(t, storeEndpoint(config.StoreConfig{Backend: config.BackendEnv}))
}

func TestServer_EndToEndWithEnvStore(t *testing.T) {
	t.Setenv("PARAMSECRET_E2E_DB_PASSWORD", "s3cr3t")

	cfg := config.DefaultConfig()
	cfg.Store.Backend = config.BackendEnv
	cfg.Secrets.SDK = strPtr("ssm_sdk://PARAMSECRET_E2E_DB_PASSWORD")
	cfg.Secrets.Secret = strPtr("already-decrypted")
	cfg.Secrets.Prefix = strPtr("ssm_sdk://")

	tracer := noop.NewTracerProvider().Tracer("test")
	backend, err := buildBackend(context.Background(), cfg, quietLogger(), tracer)
	require.NoError(t, err)

	logger := observability.NewLogger(observability.LoggerConfig{Output: io.Discard}, observability.NewRedactor())
	handler := api.NewHandler(backend, logger)
	defer handler.Close()

	mux, err := buildMux(cfg, handler)
	require.NoError(t, err)

	srv := httptest.NewServer(buildMiddlewareStack(tracer)(mux))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "SDK decrypted: s3cr3tSsn-env decrypted: already-decrypted", string(body))
	assert.NotEmpty(t, resp.Header.Get(observability.RequestIDHeader))
}

func TestServer_EndToEndMissingParameter(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Backend = config.BackendEnv
	cfg.Secrets.SDK = strPtr("ssm_sdk://PARAMSECRET_E2E_DOES_NOT_EXIST")
	cfg.Secrets.Secret = strPtr("already-decrypted")
	cfg.Secrets.Prefix = strPtr("ssm_sdk://")

	tracer := noop.NewTracerProvider().Tracer("test")
	backend, err := buildBackend(context.Background(), cfg, quietLogger(), tracer)
	require.NoError(t, err)

	logger := observability.NewLogger(observability.LoggerConfig{Output: io.Discard}, nil)
	handler := api.NewHandler(backend, logger)
	defer handler.Close()

	mux, err := buildMux(cfg, handler)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	buildMiddlewareStack(tracer)(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "already-decrypted")
}
