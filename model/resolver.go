package model

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Factory builds a Model from a credential.
type Factory func(ctx context.Context, apiKey string) (Model, error)

// Resolver produces the Model for one run. Generative agents call Resolve
// once per run so credential changes are picked up without a restart.
type Resolver interface {
	Resolve(ctx context.Context) (Model, error)
}

// EnvResolver reads the credential from an environment variable on every
// Resolve call.
type EnvResolver struct {
	EnvVar  string
	Factory Factory
	// Lookup overrides os.LookupEnv, mainly for tests.
	Lookup func(key string) (string, bool)
}

// Resolve implements Resolver.
func (r EnvResolver) Resolve(ctx context.Context) (Model, error) {
	lookup := r.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	key, _ := lookup(r.EnvVar)
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrMissingCredential, r.EnvVar)
	}

	if r.Factory == nil {
		return nil, fmt.Errorf("%w: no client factory configured", ErrProviderUnavailable)
	}

	m, err := r.Factory(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	return m, nil
}

// StaticResolver always returns the same model.
type StaticResolver struct {
	Model Model
}

// Resolve implements Resolver.
func (r StaticResolver) Resolve(context.Context) (Model, error) {
	if r.Model == nil {
		return nil, fmt.Errorf("%w: no model configured", ErrProviderUnavailable)
	}

	return r.Model, nil
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) (Model, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context) (Model, error) { return f(ctx) }
