package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivvam/agent-communication-protocol/core"
	"github.com/Shivvam/agent-communication-protocol/internal/testutil"
	"github.com/Shivvam/agent-communication-protocol/logging"
	"github.com/Shivvam/agent-communication-protocol/model"
)

func generativeNoDelay(o *GenerativeOptions) {
	o.Template = append(o.Template, noDelay)
}

func TestGenerativeAgent_Answers(t *testing.T) {
	m := model.NewMockModel("mock")
	m.AddResponse("capital of France", "Paris")

	a := NewGenerativeAgent(model.StaticResolver{Model: m}, generativeNoDelay)

	events, err := testutil.RunAgent(context.Background(), a, testutil.UserMessages("What is the capital of France?"))
	require.NoError(t, err)

	assert.Equal(t, []string{GenerativeThought}, testutil.Thoughts(events))
	assert.Equal(t, []string{"Paris"}, testutil.OutputTexts(events))
	assert.Equal(t, "agent/Gemini_Agent", testutil.Outputs(events)[0].Role)
}

func TestGenerativeAgent_MissingCredential(t *testing.T) {
	resolver := model.EnvResolver{
		EnvVar: "GEMINI_API_KEY",
		Lookup: func(string) (string, bool) { return "", false },
		Factory: func(context.Context, string) (model.Model, error) {
			t.Fatal("factory must not be called without a credential")
			return nil, nil
		},
	}
	a := NewGenerativeAgent(resolver, generativeNoDelay)

	events, err := testutil.RunAgent(context.Background(), a, testutil.UserMessages("one", "two", "three"))
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.True(t, events[0].IsThought())
	assert.Contains(t, events[0].Thought(), "GEMINI_API_KEY")
	assert.Empty(t, testutil.Outputs(events))
}

func TestGenerativeAgent_ProviderUnavailable(t *testing.T) {
	resolver := model.EnvResolver{
		EnvVar:  "KEY",
		Lookup:  func(string) (string, bool) { return "set", true },
		Factory: func(context.Context, string) (model.Model, error) { return nil, errors.New("sdk missing") },
	}

	events, err := testutil.RunAgent(context.Background(), NewGenerativeAgent(resolver, generativeNoDelay), testutil.UserMessages("q"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Thought(), "Answer provider unavailable")
}

func TestGenerativeAgent_ProviderFailureContinues(t *testing.T) {
	m := model.NewMockModel("mock")
	m.AddFailure("second", errors.New("quota exceeded"))
	m.AddResponse("first", "answer one")
	m.AddResponse("third", "answer three")

	a := NewGenerativeAgent(model.StaticResolver{Model: m}, generativeNoDelay)

	events, err := testutil.RunAgent(context.Background(), a, testutil.UserMessages("first", "second", "third"))
	require.NoError(t, err)

	assert.Equal(t, []string{"answer one", "answer three"}, testutil.OutputTexts(events))
	assert.Len(t, m.Requests(), 3, "every message must be attempted")

	thoughts := testutil.Thoughts(events)
	require.Len(t, thoughts, 4)
	assert.Contains(t, thoughts[2], "Error generating answer")
	assert.Contains(t, thoughts[2], "quota exceeded")
}

func TestGenerativeAgent_ResolvesOncePerRun(t *testing.T) {
	resolved := 0
	resolver := model.ResolverFunc(func(context.Context) (model.Model, error) {
		resolved++
		return model.NewMockModel("mock"), nil
	})
	a := NewGenerativeAgent(resolver, generativeNoDelay)

	for run := 0; run < 2; run++ {
		_, err := testutil.RunAgent(context.Background(), a, testutil.UserMessages("a", "b"))
		require.NoError(t, err)
	}

	assert.Equal(t, 2, resolved)
}

func TestGenerativeAgent_CallLimit(t *testing.T) {
	m := model.NewMockModel("mock")
	a := NewGenerativeAgent(model.StaticResolver{Model: m}, generativeNoDelay)

	emit := make(chan core.Event, 16)
	rc := core.NewRunContext(context.Background(), "s", "r", a.Descriptor(), emit, 1, nil)

	require.NoError(t, a.Run(rc, testutil.UserMessages("a", "b")))
	close(emit)

	events := testutil.Collect(emit)
	assert.Len(t, testutil.Outputs(events), 1)
	assert.Len(t, m.Requests(), 1)
	assert.Contains(t, testutil.Thoughts(events)[2], "limit exceeded")
}

func TestGenerativeAgent_LogsProviderCalls(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LogLevelInfo, Format: "json", Output: &buf})

	m := model.NewMockModel("mock-1")
	m.AddFailure("bad", errors.New("quota exceeded"))
	a := NewGenerativeAgent(model.StaticResolver{Model: m}, generativeNoDelay)

	emit := make(chan core.Event, 16)
	rc := core.NewRunContext(context.Background(), "s", "r", a.Descriptor(), emit, 0, logger)

	require.NoError(t, a.Run(rc, testutil.UserMessages("good", "bad")))
	close(emit)

	var calls []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if _, ok := entry["provider"]; ok && entry["success"] != nil {
			calls = append(calls, entry)
		}
	}

	require.Len(t, calls, 2)
	assert.Equal(t, "Provider call completed", calls[0]["msg"])
	assert.Equal(t, GenerativeName, calls[0]["agent"])
	assert.Equal(t, "mock", calls[0]["provider"])
	assert.Equal(t, "mock-1", calls[0]["model"])
	assert.Equal(t, "Provider call failed", calls[1]["msg"])
	assert.Contains(t, calls[1]["error"], "quota exceeded")
}

func TestExpertAgent_UsesRolePrompt(t *testing.T) {
	m := model.NewMockModel("mock")
	a := NewExpertAgent(model.StaticResolver{Model: m}, generativeNoDelay)

	assert.Equal(t, ExpertName, a.Name())

	_, err := testutil.RunAgent(context.Background(), a, testutil.UserMessages("Should I use gRPC?"))
	require.NoError(t, err)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Prompt, "You are Expert_Agent, a senior technical consultant")
	assert.Contains(t, reqs[0].Prompt, "Question:\nShould I use gRPC?")
}

func TestGenerativeAgent_CustomName(t *testing.T) {
	a := NewGenerativeAgent(model.StaticResolver{}, func(o *GenerativeOptions) {
		o.Name = "Research_Agent"
		o.Description = "research"
	})

	assert.Equal(t, "Research_Agent", a.Descriptor().Name)
}
