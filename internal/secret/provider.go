// Package secret resolves configuration values that are either literal secrets
// or references to entries in an external parameter store.
package secret

import "context"

// ParameterLookup fetches a single named parameter from a parameter store.
// Implementations request decryption so the returned value is plaintext.
type ParameterLookup interface {
	// Lookup returns the decrypted value stored under name.
	// name is passed exactly as it appears after the reference prefix,
	// e.g. "db/password" for "ssm_sdk://db/password".
	Lookup(ctx context.Context, name string) (string, error)
}

// LookupFunc adapts a plain function to the ParameterLookup interface.
type LookupFunc func(ctx context.Context, name string) (string, error)

// Lookup calls f(ctx, name).
func (f LookupFunc) Lookup(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}
