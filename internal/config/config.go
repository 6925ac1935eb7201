// Package config provides configuration loading from the environment and an
// optional YAML file, with hot-reload support for the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blueberrycongee/paramsecret/internal/observability"
	"github.com/blueberrycongee/paramsecret/internal/secret"
)

// Environment variables read by LoadFromEnv.
const (
	EnvSecretSDK       = "SECRET_SDK"
	EnvSecret          = "SECRET"
	EnvSecretSDKPrefix = "SECRET_SDK_PREFIX"
	EnvConfigPath      = "PARAMSECRET_CONFIG"
	EnvStoreBackend    = "SECRET_STORE_BACKEND"
	EnvAWSRegion       = "AWS_REGION"
	EnvSSMEndpoint     = "SSM_ENDPOINT"
	EnvVaultAddr       = "VAULT_ADDR"
	EnvVaultAuthMethod = "VAULT_AUTH_METHOD"
	EnvVaultToken      = "VAULT_TOKEN"
	EnvVaultRoleID     = "VAULT_ROLE_ID"
	EnvVaultSecretID   = "VAULT_SECRET_ID"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvMetricsEnabled  = "METRICS_ENABLED"
	EnvTracingEnabled  = "TRACING_ENABLED"
	EnvOTLPEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPProtocol    = "OTEL_EXPORTER_OTLP_PROTOCOL"
)

// Store backends.
const (
	BackendSSM   = "ssm"
	BackendVault = "vault"
	BackendEnv   = "env"
)

// Config represents the complete service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Secrets SecretsConfig `yaml:"secrets"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecretsConfig holds the values rendered by the endpoint.
// Nil pointers mean the value was not provided at all.
type SecretsConfig struct {
	SDK    *string `yaml:"sdk"`    // literal or prefixed reference
	Secret *string `yaml:"secret"` // already-resolved value
	Prefix *string `yaml:"prefix"` // reference marker; empty selects the default
}

// ResolverConfig converts the secrets section into the resolver's configuration.
func (s SecretsConfig) ResolverConfig() secret.Config {
	return secret.Config{
		Primary:   s.SDK,
		Secondary: s.Secret,
		Prefix:    s.Prefix,
	}
}

// StoreConfig selects and configures the parameter store backend.
type StoreConfig struct {
	Backend string      `yaml:"backend"` // ssm, vault, env
	SSM     SSMConfig   `yaml:"ssm"`
	Vault   VaultConfig `yaml:"vault"`
}

// SSMConfig configures the AWS SSM client. Empty fields use the default AWS chain.
type SSMConfig struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// VaultConfig configures the Vault client.
type VaultConfig struct {
	Address    string `yaml:"address"`
	AuthMethod string `yaml:"auth_method"` // token, approle, cert
	Token      string `yaml:"token"`
	RoleID     string `yaml:"role_id"`
	SecretID   string `yaml:"secret_id"`
	CACert     string `yaml:"ca_cert"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`     // OTLP endpoint (e.g., "localhost:4317")
	Protocol    string  `yaml:"protocol"`     // grpc, http
	ServiceName string  `yaml:"service_name"` // Service name for traces
	SampleRate  float64 `yaml:"sample_rate"`  // Sampling rate (0.0 to 1.0)
	Insecure    bool    `yaml:"insecure"`     // Use insecure connection (no TLS)
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	tracing := observability.DefaultTracingConfig()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            80,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Store: StoreConfig{
			Backend: BackendSSM,
			Vault: VaultConfig{
				AuthMethod: "token",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Enabled:     tracing.Enabled,
			Endpoint:    tracing.Endpoint,
			Protocol:    tracing.Protocol,
			ServiceName: tracing.ServiceName,
			SampleRate:  tracing.SampleRate,
			Insecure:    tracing.Insecure,
		},
	}
}

// LoadFromEnv builds the configuration from defaults and environment variables.
func LoadFromEnv() (*Config, error) {
	return loadFromEnv(os.LookupEnv)
}

func loadFromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile reads and parses a YAML configuration file on top of the
// environment-derived configuration. Environment variables in the format
// ${VAR_NAME} are expanded inside scalar values. Keys absent from the file
// keep their env values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return parse(data, os.LookupEnv)
}

func parse(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if doc.Kind != 0 {
		expandNode(&doc, lookup)
		if err := doc.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// envRef matches ${VAR_NAME}. A bare "$" is left as written.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandNode substitutes ${VAR_NAME} references inside scalar values after the
// document has been parsed, so substituted text never changes YAML structure.
func expandNode(n *yaml.Node, lookup func(string) (string, bool)) {
	if n.Kind == yaml.ScalarNode {
		expanded := envRef.ReplaceAllStringFunc(n.Value, func(ref string) string {
			v, _ := lookup(ref[2 : len(ref)-1])
			return v
		})
		if expanded == n.Value {
			return
		}
		n.Value = expanded
		n.Tag = ""
		switch expanded {
		case "", "~", "null", "Null", "NULL":
			// Keep an empty substitution a present string rather than null.
			n.Style = yaml.DoubleQuotedStyle
		}
		return
	}
	for _, c := range n.Content {
		expandNode(c, lookup)
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvSecretSDK); ok {
		cfg.Secrets.SDK = &v
	}
	if v, ok := lookup(EnvSecret); ok {
		cfg.Secrets.Secret = &v
	}
	if v, ok := lookup(EnvSecretSDKPrefix); ok {
		cfg.Secrets.Prefix = &v
	}

	setString := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	setString(&cfg.Store.Backend, EnvStoreBackend)
	setString(&cfg.Store.SSM.Region, EnvAWSRegion)
	setString(&cfg.Store.SSM.Endpoint, EnvSSMEndpoint)
	setString(&cfg.Store.Vault.Address, EnvVaultAddr)
	setString(&cfg.Store.Vault.AuthMethod, EnvVaultAuthMethod)
	setString(&cfg.Store.Vault.Token, EnvVaultToken)
	setString(&cfg.Store.Vault.RoleID, EnvVaultRoleID)
	setString(&cfg.Store.Vault.SecretID, EnvVaultSecretID)
	setString(&cfg.Logging.Level, EnvLogLevel)
	setString(&cfg.Logging.Format, EnvLogFormat)
	setString(&cfg.Tracing.Endpoint, EnvOTLPEndpoint)
	setString(&cfg.Tracing.Protocol, EnvOTLPProtocol)

	setBool := func(dst *bool, key string) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q", key, v)
		}
		*dst = b
		return nil
	}
	if err := setBool(&cfg.Metrics.Enabled, EnvMetricsEnabled); err != nil {
		return err
	}
	return setBool(&cfg.Tracing.Enabled, EnvTracingEnabled)
}

// Validate checks the configuration for errors.
// Missing secret values are not errors here; they fail each request instead.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return errors.New("server timeouts cannot be negative")
	}

	switch c.Store.Backend {
	case BackendSSM, BackendEnv:
	case BackendVault:
		if err := c.Store.Vault.validate(); err != nil {
			return fmt.Errorf("store.vault: %w", err)
		}
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid logging.format: %q", c.Logging.Format)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/': %q", c.Metrics.Path)
	}
	if c.Metrics.Enabled && c.Metrics.Path == "/" {
		return errors.New("metrics.path cannot be '/'")
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1: %v", c.Tracing.SampleRate)
	}
	switch c.Tracing.Protocol {
	case "grpc", "http":
	default:
		return fmt.Errorf("invalid tracing.protocol: %q", c.Tracing.Protocol)
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return errors.New("tracing.endpoint is required when tracing is enabled")
	}

	return nil
}

func (v VaultConfig) validate() error {
	switch v.AuthMethod {
	case "token":
		if v.Token == "" {
			return errors.New("token is required for token auth")
		}
	case "approle":
		if v.RoleID == "" {
			return errors.New("role_id is required for approle auth")
		}
	case "cert":
		if v.ClientCert == "" || v.ClientKey == "" {
			return errors.New("client_cert and client_key are required for cert auth")
		}
	default:
		return fmt.Errorf("unknown auth_method: %q", v.AuthMethod)
	}
	return nil
}

// MissingSecrets lists the secret values that will fail requests with a
// missing-configuration error.
func (c *Config) MissingSecrets() []string {
	var missing []string
	if c.Secrets.SDK == nil {
		missing = append(missing, EnvSecretSDK)
	}
	if c.Secrets.Secret == nil || *c.Secrets.Secret == "" {
		missing = append(missing, EnvSecret)
	}
	if c.Secrets.Prefix == nil {
		missing = append(missing, EnvSecretSDKPrefix)
	}
	return missing
}
