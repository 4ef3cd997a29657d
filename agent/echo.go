package agent

import (
	"github.com/Shivvam/agent-communication-protocol/core"
)

// Names and texts of the built-in toy agents.
const (
	EchoName        = "Echo_Agent"
	EchoDescription = "Echoes everything"
	EchoThought     = "I should echo everything"

	DoNothingName        = "Do_Nothing_Agent"
	DoNothingDescription = "This agent does nothing"
	DoNothingThought     = "I should echo everything"
	DoNothingOutput      = "I will do nothing"
)

// NewEchoAgent returns an agent that answers every message with a copy of it.
func NewEchoAgent(optFns ...func(o *TemplateOptions)) *Template {
	fns := append([]func(o *TemplateOptions){func(o *TemplateOptions) {
		o.Progress = EchoThought
		o.Produce = func(_ *core.RunContext, msg core.Message) (core.Message, error) {
			// the role is cleared so the emitter attributes the copy to the agent
			return msg.WithRole(""), nil
		}
	}}, optFns...)

	return NewTemplate(core.NewTextDescriptor(EchoName, EchoDescription), fns...)
}

// NewDoNothingAgent returns an agent that answers every message with a fixed
// refusal, ignoring its content.
func NewDoNothingAgent(optFns ...func(o *TemplateOptions)) *Template {
	fns := append([]func(o *TemplateOptions){func(o *TemplateOptions) {
		o.Progress = DoNothingThought
		o.Produce = func(_ *core.RunContext, _ core.Message) (core.Message, error) {
			return core.NewTextMessage("", DoNothingOutput), nil
		}
	}}, optFns...)

	return NewTemplate(core.NewTextDescriptor(DoNothingName, DoNothingDescription), fns...)
}
