package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModel_Generate(t *testing.T) {
	m := NewMockModel("mock-1")
	m.AddResponse("capital of France", "Paris")
	m.AddFailure("quota", errors.New("rate limited"))

	text, err := Generate(context.Background(), m, "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris", text)

	text, err = Generate(context.Background(), m, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hello", text)

	_, err = Generate(context.Background(), m, "exceed quota please")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "mock", pe.Provider)
	assert.Contains(t, pe.Error(), "rate limited")

	assert.Len(t, m.Requests(), 3)
}

func TestMockModel_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockModel("m").Generate(ctx, Request{Prompt: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWrapError(t *testing.T) {
	info := Info{Name: "gpt", Provider: "openai"}

	assert.NoError(t, WrapError(info, nil))
	assert.Equal(t, context.Canceled, WrapError(info, context.Canceled))

	base := errors.New("boom")
	err := WrapError(info, base)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "openai (gpt): boom", err.Error())

	// already wrapped errors are not wrapped twice
	assert.Same(t, err, WrapError(info, err))
}

func TestEnvResolver(t *testing.T) {
	env := map[string]string{}
	calls := 0
	r := EnvResolver{
		EnvVar: "GEMINI_API_KEY",
		Lookup: func(k string) (string, bool) { v, ok := env[k]; return v, ok },
		Factory: func(_ context.Context, key string) (Model, error) {
			calls++
			if key == "bad" {
				return nil, errors.New("invalid key format")
			}
			return NewMockModel("gemini"), nil
		},
	}

	_, err := r.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	assert.Zero(t, calls)

	env["GEMINI_API_KEY"] = "bad"
	_, err = r.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	// credential is read on every call, never cached
	env["GEMINI_API_KEY"] = "good"
	m, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gemini", m.Info().Name)
	assert.Equal(t, 2, calls)
}

func TestStaticResolver(t *testing.T) {
	_, err := StaticResolver{}.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	m := NewMockModel("m")
	got, err := StaticResolver{Model: m}.Resolve(context.Background())
	require.NoError(t, err)
	assert.Same(t, m, got)
}
