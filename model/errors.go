package model

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential reports that the provider credential is not configured.
	ErrMissingCredential = errors.New("missing provider credential")

	// ErrProviderUnavailable reports that the provider client could not be created.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// ProviderError wraps a failed call to an Answer Provider. It is transient:
// callers report it and move on to the next message.
type ProviderError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s (%s): %v", e.Provider, e.Model, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error { return e.Err }

// WrapError wraps err as a ProviderError unless it is nil or a context error.
func WrapError(info Info, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}

	return &ProviderError{Provider: info.Provider, Model: info.Name, Err: err}
}
