package agent

import (
	"fmt"

	"github.com/Shivvam/agent-communication-protocol/core"
)

// SequentialAgent pipes its input through child agents in order: the
// outputs of one child become the input of the next.
//
// Events of every child are forwarded under the child's name. Outputs of
// intermediate children are reported as thoughts; only the last child's
// outputs are outputs of the run. The first failing child stops the
// pipeline.
type SequentialAgent struct {
	BaseAgent
	children []core.Agent
}

// NewSequentialAgent creates a pipeline described by d.
func NewSequentialAgent(d core.AgentDescriptor, children ...core.Agent) *SequentialAgent {
	return &SequentialAgent{
		BaseAgent: NewBaseAgent(d),
		children:  children,
	}
}

// Run implements core.Agent.
func (s *SequentialAgent) Run(rc *core.RunContext, inputs []core.Message) error {
	msgs := inputs

	for i, child := range s.children {
		outs, err := runStage(rc, child, msgs, i == len(s.children)-1)
		if err != nil {
			return fmt.Errorf("sequential execution failed at agent %s: %w", child.Descriptor().Name, err)
		}

		msgs = outs
	}

	return nil
}

// runStage runs child over input and returns its outputs.
func runStage(rc *core.RunContext, child core.Agent, input []core.Message, last bool) ([]core.Message, error) {
	d := child.Descriptor()
	emit := make(chan core.Event)
	done := make(chan error, 1)

	go func() {
		defer close(emit)
		done <- child.Run(rc.Child(d, emit), input)
	}()

	var (
		outs       []core.Message
		forwardErr error
	)

	for ev := range emit {
		if forwardErr != nil {
			continue
		}

		if msg, ok := ev.Output(); ok {
			outs = append(outs, msg.WithRole(core.RoleUser))

			if !last {
				th, err := core.NewThought(fmt.Sprintf("%s: %s", d.Name, msg.Text()))
				if err != nil {
					forwardErr = err
					continue
				}

				th.Author = d.Name
				ev = th
			}
		}

		forwardErr = rc.Forward(ev)
	}

	if err := <-done; err != nil {
		return nil, err
	}

	return outs, forwardErr
}
