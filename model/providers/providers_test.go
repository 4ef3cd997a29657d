package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivvam/agent-communication-protocol/model"
)

func TestLookup(t *testing.T) {
	p, err := Lookup("Gemini")
	require.NoError(t, err)
	assert.Equal(t, "GEMINI_API_KEY", p.EnvVar)

	_, err = Lookup("ollama")
	assert.ErrorContains(t, err, "anthropic, gemini, openai")
}

func TestResolver_MissingCredential(t *testing.T) {
	p, err := Lookup("openai")
	require.NoError(t, err)

	t.Setenv("ACP_TEST_MISSING_KEY", "")

	_, err = p.Resolver("ACP_TEST_MISSING_KEY", Settings{}).Resolve(context.Background())
	assert.ErrorIs(t, err, model.ErrMissingCredential)
}

func TestResolver_BuildsModel(t *testing.T) {
	p, err := Lookup("anthropic")
	require.NoError(t, err)

	t.Setenv("ACP_TEST_ANTHROPIC_KEY", "sk-test")

	m, err := p.Resolver("ACP_TEST_ANTHROPIC_KEY", Settings{Model: "claude-3-5-haiku-latest"}).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Info{Name: "claude-3-5-haiku-latest", Provider: "anthropic"}, m.Info())
}
