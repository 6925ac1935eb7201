package secret

import (
	"context"
	"errors"
	"strings"

	"github.com/blueberrycongee/paramsecret/internal/metrics"
)

// DefaultPrefix marks a configuration value as a parameter store reference.
const DefaultPrefix = "ssm_sdk://"

// Config is the explicit resolver configuration.
// A nil pointer means the value was absent, which differs from an empty string.
type Config struct {
	Primary   *string // literal secret or prefixed reference
	Secondary *string // already-resolved secret, used verbatim
	Prefix    *string // reference marker; empty selects DefaultPrefix
}

// Resolver resolves the configured secret values against a parameter store.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	cfg    Config
	lookup ParameterLookup
}

// NewResolver creates a resolver bound to cfg and lookup.
func NewResolver(cfg Config, lookup ParameterLookup) (*Resolver, error) {
	if lookup == nil {
		return nil, errors.New("secret: parameter lookup is required")
	}
	return &Resolver{cfg: cfg, lookup: lookup}, nil
}

// Prefix returns the reference prefix in effect.
// An absent or empty prefix reports DefaultPrefix.
func (r *Resolver) Prefix() string {
	if r.cfg.Prefix == nil || *r.cfg.Prefix == "" {
		return DefaultPrefix
	}
	return *r.cfg.Prefix
}

// Resolve resolves value using the resolver's prefix and lookup.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	prefix := r.Prefix()
	if IsReference(value, prefix) {
		metrics.RecordResolution("reference")
	} else {
		metrics.RecordResolution("literal")
	}
	return Resolve(ctx, r.lookup, value, prefix)
}

// Primary resolves the primary configuration value.
// It fails with ErrMissingConfiguration before any lookup when the value or
// the reference prefix is absent.
func (r *Resolver) Primary(ctx context.Context) (string, error) {
	if r.cfg.Primary == nil {
		return "", missing("primary secret value")
	}
	if r.cfg.Prefix == nil {
		return "", missing("reference prefix")
	}
	return r.Resolve(ctx, *r.cfg.Primary)
}

// Secondary returns the already-resolved secondary value.
// Absent and empty values both fail with ErrMissingConfiguration.
func (r *Resolver) Secondary() (string, error) {
	if r.cfg.Secondary == nil || *r.cfg.Secondary == "" {
		return "", missing("secondary secret value")
	}
	return *r.cfg.Secondary, nil
}

// IsReference reports whether value starts with prefix.
// The comparison is an exact, case-sensitive byte prefix match.
func IsReference(value, prefix string) bool {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return strings.HasPrefix(value, prefix)
}

// Resolve returns value unchanged unless it starts with prefix, in which case
// the remainder is looked up in the parameter store and the decrypted value is
// returned. An empty prefix selects DefaultPrefix.
func Resolve(ctx context.Context, lookup ParameterLookup, value, prefix string) (string, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	name, ok := strings.CutPrefix(value, prefix)
	if !ok {
		return value, nil
	}
	if lookup == nil {
		return "", NewLookupError(name, "", errors.New("no parameter store configured"))
	}

	val, err := lookup.Lookup(ctx, name)
	if err != nil {
		return "", NewLookupError(name, "", err)
	}
	return val, nil
}
