package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Shivvam/agent-communication-protocol/core"
)

// ParallelAgent runs every child concurrently over the same input.
//
// Children emit directly into the run under their own names, so events of
// different children interleave while each child's own order is kept.
// Every child runs to completion; the first error is returned afterwards.
type ParallelAgent struct {
	BaseAgent
	children []core.Agent
	// bounds all children; 0 disables
	timeout time.Duration
}

// NewParallelAgent creates a fan-out agent described by d.
func NewParallelAgent(d core.AgentDescriptor, timeout time.Duration, children ...core.Agent) *ParallelAgent {
	return &ParallelAgent{
		BaseAgent: NewBaseAgent(d),
		children:  children,
		timeout:   timeout,
	}
}

// Run implements core.Agent.
func (p *ParallelAgent) Run(rc *core.RunContext, inputs []core.Message) error {
	ctx := rc.Context
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)

		defer cancel()
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(p.children))

	for _, child := range p.children {
		wg.Add(1)

		go func(c core.Agent) {
			defer wg.Done()

			crc := rc.Child(c.Descriptor(), rc.Emit)
			crc.Context = ctx

			if err := c.Run(crc, inputs); err != nil {
				errCh <- fmt.Errorf("parallel execution failed for agent %s: %w", c.Descriptor().Name, err)
			}
		}(child)
	}

	wg.Wait()
	close(errCh)

	if len(errCh) > 0 {
		return <-errCh
	}

	return nil
}
