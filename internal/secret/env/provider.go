// Package env implements a parameter lookup backed by environment variables.
// It stands in for a remote parameter store during local development.
package env

import (
	"context"
	"errors"
	"os"

	"github.com/blueberrycongee/paramsecret/internal/secret"
)

// ErrNotSet is the cause reported when the referenced variable is absent.
var ErrNotSet = errors.New("environment variable not set")

// Provider resolves reference names as environment variable names.
type Provider struct {
	lookupEnv func(string) (string, bool)
}

// New creates a new env provider reading the process environment.
func New() *Provider {
	return &Provider{lookupEnv: os.LookupEnv}
}

// Lookup returns the value of the environment variable called name.
func (p *Provider) Lookup(_ context.Context, name string) (string, error) {
	val, ok := p.lookupEnv(name)
	if !ok {
		return "", secret.NewLookupError(name, "NotSet", ErrNotSet)
	}
	return val, nil
}
