package agent

import (
	"strings"

	"github.com/Shivvam/agent-communication-protocol/core"
	"github.com/Shivvam/agent-communication-protocol/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
type Provider interface {
	Instruction(*core.RunContext) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(*core.RunContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(rc *core.RunContext) (string, error) { return f(rc) }

// Instruction is the role prompt of a generative agent: either a static
// string or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.RunContext) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(rc *core.RunContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(rc)
	}

	return i.text, nil
}

// Prompt combines the role prompt with a user query.
//
// A role prompt referencing {{.query}} is rendered as a template with the
// keys query, agent, run_id and session_id. Otherwise the rendered prompt is
// used as a prefix and the query follows after a blank line.
func (i Instruction) Prompt(rc *core.RunContext, query string) (string, error) {
	text, err := i.Resolve(rc)
	if err != nil {
		return "", err
	}

	state := map[string]any{
		"query":      query,
		"agent":      rc.Agent.Name,
		"run_id":     rc.RunID,
		"session_id": rc.SessionID,
	}

	if util.HasPlaceholder(text, "query") {
		return util.RenderTemplate(text, state)
	}

	prefix, err := util.RenderTemplate(text, state)
	if err != nil {
		return "", err
	}

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return query, nil
	}

	return prefix + "\n\n" + query, nil
}
