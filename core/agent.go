package core

// Agent is a named, registered runner that consumes messages and streams
// events back through its RunContext.
//
// Run processes inputs in order and pushes Thought / Output events via the
// RunContext emit helpers. Returning ends the event sequence; a nil error
// means the run completed, even when some messages produced only thoughts.
// Implementations must keep per-run state local to the call: the same agent
// serves many concurrent runs.
type Agent interface {
	Descriptor() AgentDescriptor
	Run(rc *RunContext, inputs []Message) error
}

// AgentFunc adapts a plain function to the Agent interface.
type AgentFunc struct {
	Desc AgentDescriptor
	Fn   func(rc *RunContext, inputs []Message) error
}

// Descriptor implements Agent.
func (a AgentFunc) Descriptor() AgentDescriptor { return a.Desc }

// Run implements Agent.
func (a AgentFunc) Run(rc *RunContext, inputs []Message) error { return a.Fn(rc, inputs) }
