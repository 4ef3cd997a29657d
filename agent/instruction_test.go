package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/Shivvam/agent-communication-protocol/core"
	"github.com/Shivvam/agent-communication-protocol/logging"
)

type mockProvider struct {
	text string
	err  error
}

func (m mockProvider) Instruction(*core.RunContext) (string, error) { return m.text, m.err }

func newTestRunContext() *core.RunContext {
	return core.NewRunContext(
		context.Background(),
		"test-session",
		"run-id",
		core.NewTextDescriptor("TestAgent", "test"),
		make(chan core.Event, 1),
		0,
		logging.NoOpLogger{},
	)
}

func TestInstruction_Static(t *testing.T) {
	inst := NewInstructionFromText("static instruction")
	if !inst.IsStatic() {
		t.Fatalf("expected static instruction")
	}
	got, err := inst.Resolve(newTestRunContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "static instruction" {
		t.Fatalf("expected 'static instruction', got %q", got)
	}
}

func TestInstruction_Provider(t *testing.T) {
	inst := NewInstructionFromProvider(mockProvider{text: "dynamic"})
	if inst.IsStatic() {
		t.Fatalf("expected dynamic instruction")
	}
	got, err := inst.Resolve(newTestRunContext())
	if err != nil || got != "dynamic" {
		t.Fatalf("unexpected result %q, %v", got, err)
	}

	failing := NewInstructionFromProvider(mockProvider{err: errors.New("boom")})
	if _, err := failing.Prompt(newTestRunContext(), "q"); err == nil {
		t.Fatalf("expected provider error")
	}
}

func TestInstruction_PromptPrefix(t *testing.T) {
	got, err := NewInstructionFromText("You are a poet.\n").Prompt(newTestRunContext(), "Write about Go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "You are a poet.\n\nWrite about Go" {
		t.Fatalf("unexpected prompt %q", got)
	}

	got, _ = NewInstructionFromText("").Prompt(newTestRunContext(), "bare query")
	if got != "bare query" {
		t.Fatalf("empty instruction should pass the query through, got %q", got)
	}
}

func TestInstruction_PromptTemplate(t *testing.T) {
	inst := NewInstructionFromFunc(func(rc *core.RunContext) (string, error) {
		return "{{.agent}} answers: {{.query}}", nil
	})
	got, err := inst.Prompt(newTestRunContext(), "why?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "TestAgent answers: why?" {
		t.Fatalf("unexpected prompt %q", got)
	}
}

func TestExpertPrompt_Embedded(t *testing.T) {
	got, err := NewInstructionFromText(ExpertPrompt()).Prompt(newTestRunContext(), "How do I shard a queue?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) < 200 {
		t.Fatalf("expert prompt looks truncated: %q", got)
	}
	const suffix = "Question:\nHow do I shard a queue?\n"
	if got[len(got)-len(suffix):] != suffix {
		t.Fatalf("query not rendered at the end of the prompt: %q", got[len(got)-60:])
	}
}
