package api

import (
	"io"

	"github.com/blueberrycongee/paramsecret/internal/secret"
)

// Backend pairs a resolver with the resources held by its parameter lookup.
type Backend struct {
	Resolver *secret.Resolver
	closer   io.Closer
}

// NewBackend creates a Backend. closer may be nil.
func NewBackend(resolver *secret.Resolver, closer io.Closer) *Backend {
	return &Backend{Resolver: resolver, closer: closer}
}

// Close releases the lookup's resources.
func (b *Backend) Close() error {
	if b == nil || b.closer == nil {
		return nil
	}
	return b.closer.Close()
}
