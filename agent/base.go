package agent

import (
	"github.com/Shivvam/agent-communication-protocol/core"
)

// BaseAgent holds the static descriptor shared by every agent in this
// package. Embed it and implement Run.
type BaseAgent struct {
	descriptor core.AgentDescriptor
}

// NewBaseAgent creates a BaseAgent for d.
func NewBaseAgent(d core.AgentDescriptor) BaseAgent {
	return BaseAgent{descriptor: d.Clone()}
}

// Name returns the registered agent name.
func (b *BaseAgent) Name() string { return b.descriptor.Name }

// Description returns the human readable description.
func (b *BaseAgent) Description() string { return b.descriptor.Description }

// Descriptor implements core.Agent. The returned value is a copy.
func (b *BaseAgent) Descriptor() core.AgentDescriptor { return b.descriptor.Clone() }
