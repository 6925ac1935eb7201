package secret

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingConfiguration is returned when a required configuration value is absent.
	ErrMissingConfiguration = errors.New("missing configuration")

	// ErrLookupFailure is returned when the parameter store lookup fails for any
	// reason: not found, access denied, or transport error.
	ErrLookupFailure = errors.New("parameter lookup failed")
)

// LookupError describes a failed parameter store lookup.
type LookupError struct {
	Name string // parameter name, prefix stripped
	Code string // store error code when known, e.g. "ParameterNotFound"
	Err  error
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("lookup parameter %q (%s): %v", e.Name, e.Code, e.Err)
	}
	return fmt.Sprintf("lookup parameter %q: %v", e.Name, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LookupError) Unwrap() error {
	return e.Err
}

// Is reports ErrLookupFailure as a match so callers can test the category
// without knowing the backend.
func (e *LookupError) Is(target error) bool {
	return target == ErrLookupFailure
}

// NewLookupError wraps err as a LookupError for name.
// An err that is already a *LookupError is returned unchanged.
func NewLookupError(name, code string, err error) error {
	var le *LookupError
	if errors.As(err, &le) {
		return err
	}
	if err == nil {
		err = errors.New("no value returned")
	}
	return &LookupError{Name: name, Code: code, Err: err}
}

// missing builds a MissingConfiguration error naming the absent value.
func missing(what string) error {
	return fmt.Errorf("%s: %w", what, ErrMissingConfiguration)
}
