// Package vault implements a parameter lookup backed by HashiCorp Vault.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	vault "github.com/hashicorp/vault/api"

	"github.com/blueberrycongee/paramsecret/internal/secret"
)

// DefaultKey is the field read when a reference names no key.
const DefaultKey = "value"

// Provider implements secret.ParameterLookup for HashiCorp Vault.
type Provider struct {
	client *vault.Client
	logger *slog.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// Config holds configuration for the Vault provider.
type Config struct {
	Address    string
	AuthMethod string // "approle", "cert", "token"
	Token      string
	RoleID     string
	SecretID   string
	CACert     string
	ClientCert string
	ClientKey  string
}

// New creates a new Vault provider and logs in.
func New(cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	vConfig := vault.DefaultConfig()
	if cfg.Address != "" {
		vConfig.Address = cfg.Address
	}

	if cfg.ClientCert != "" || cfg.ClientKey != "" || cfg.CACert != "" {
		tlsConfig := &vault.TLSConfig{
			ClientCert: cfg.ClientCert,
			ClientKey:  cfg.ClientKey,
			CACert:     cfg.CACert,
		}
		if err := vConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("configure tls: %w", err)
		}
	}

	client, err := vault.NewClient(vConfig)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}

	p := &Provider{
		client: client,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if cfg.AuthMethod == "token" {
		if cfg.Token == "" {
			return nil, errors.New("vault token auth requires a token")
		}
		client.SetToken(cfg.Token)
		return p, nil
	}

	var auth *vault.Secret
	switch cfg.AuthMethod {
	case "cert":
		auth, err = client.Logical().Write("auth/cert/login", nil)
	case "approle":
		auth, err = client.Logical().Write("auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
	default:
		if cfg.RoleID == "" {
			return nil, fmt.Errorf("unknown or missing auth method: %s", cfg.AuthMethod)
		}
		auth, err = client.Logical().Write("auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
	}

	if err != nil {
		return nil, fmt.Errorf("vault login (%s): %w", cfg.AuthMethod, err)
	}
	if auth == nil || auth.Auth == nil {
		return nil, errors.New("vault login returned no auth info")
	}

	client.SetToken(auth.Auth.ClientToken)

	p.wg.Add(1)
	go p.renewToken(auth.Auth)

	return p, nil
}

// Lookup reads a secret from Vault.
// name has the form "path/to/secret#key"; without "#key" the "value" field is read.
func (p *Provider) Lookup(ctx context.Context, name string) (string, error) {
	path, key := splitName(name)

	s, err := p.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", secret.NewLookupError(name, responseCode(err), err)
	}
	if s == nil || s.Data == nil {
		return "", secret.NewLookupError(name, "NotFound", fmt.Errorf("secret %q not found", path))
	}

	// KV v2 nests the payload under "data".
	data := s.Data
	if v, ok := data["data"]; ok {
		if nested, ok := v.(map[string]interface{}); ok {
			data = nested
		}
	}

	val, ok := data[key]
	if !ok {
		return "", secret.NewLookupError(name, "NotFound", fmt.Errorf("key %q not found in secret %q", key, path))
	}

	return fmt.Sprintf("%v", val), nil
}

// Close stops the token renewer.
func (p *Provider) Close() error {
	p.once.Do(func() { close(p.stopCh) })
	p.wg.Wait()
	return nil
}

func splitName(name string) (path, key string) {
	if idx := strings.LastIndex(name, "#"); idx != -1 {
		return name[:idx], name[idx+1:]
	}
	return name, DefaultKey
}

func responseCode(err error) string {
	var respErr *vault.ResponseError
	if errors.As(err, &respErr) {
		return fmt.Sprintf("HTTP%d", respErr.StatusCode)
	}
	return ""
}

func (p *Provider) renewToken(auth *vault.SecretAuth) {
	defer p.wg.Done()

	if !auth.Renewable {
		return
	}

	watcher, err := p.client.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
		Secret: &vault.Secret{Auth: auth},
	})
	if err != nil {
		p.logger.Error("failed to create vault lifetime watcher", "error", err)
		return
	}

	go watcher.Start()
	defer watcher.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case err := <-watcher.DoneCh():
			if err != nil {
				p.logger.Error("vault token renewal stopped", "error", err)
			}
			return
		case <-watcher.RenewCh():
			p.logger.Debug("vault token renewed")
		}
	}
}
