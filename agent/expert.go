package agent

import (
	_ "embed"

	"github.com/Shivvam/agent-communication-protocol/model"
)

// ExpertName is the name of the expert-persona agent.
const ExpertName = "Expert_Agent"

//go:embed prompts/expert.txt
var expertPrompt string

// ExpertPrompt returns the embedded expert-persona role prompt.
func ExpertPrompt() string { return expertPrompt }

// NewExpertAgent returns a generative agent answering in the embedded
// expert persona.
func NewExpertAgent(resolver model.Resolver, optFns ...func(o *GenerativeOptions)) *Template {
	fns := append([]func(o *GenerativeOptions){func(o *GenerativeOptions) {
		o.Name = ExpertName
		o.Description = "Answers technical questions as a senior engineering consultant"
		o.Instruction = NewInstructionFromText(expertPrompt)
	}}, optFns...)

	return NewGenerativeAgent(resolver, fns...)
}
