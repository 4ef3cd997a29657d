package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/Shivvam/agent-communication-protocol/model"
)

func TestNewModel_RequiresAPIKey(t *testing.T) {
	_, err := NewModel(context.Background())
	assert.Error(t, err)
}

func TestParseResponse(t *testing.T) {
	m := &Model{opts: Options{Model: DefaultModel}}

	resp, err := m.parseResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "internal reasoning", Thought: true},
				{Text: "Hello, "},
				{Text: "world"},
			}},
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     3,
			CandidatesTokenCount: 2,
			TotalTokenCount:      5,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestParseResponse_Empty(t *testing.T) {
	m := &Model{opts: Options{Model: DefaultModel}}

	_, err := m.parseResponse(&genai.GenerateContentResponse{})
	var pe *model.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "gemini", pe.Provider)

	_, err = m.parseResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	})
	assert.ErrorAs(t, err, &pe)
}

func TestMapFinishReason(t *testing.T) {
	assert.Equal(t, "length", mapFinishReason(genai.FinishReasonMaxTokens))
	assert.Equal(t, "stop", mapFinishReason(""))
}
