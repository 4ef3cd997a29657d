package core

import (
	"context"
	"time"

	"github.com/Shivvam/agent-communication-protocol/logging"
)

// RunContext carries the execution scope of one agent run. It aggregates:
//   - The ambient cancellation Context
//   - Identifiers (SessionID, RunID) and the agent descriptor
//   - The bounded emit channel drained by the engine
//   - A per-run provider call limiter
//
// The engine owns the RunContext; an agent must not retain it after Run
// returns.
type RunContext struct {
	Context          context.Context
	SessionID, RunID string
	Agent            AgentDescriptor
	Emit             chan<- Event
	Limiter          *CallLimiter

	*runLogger
}

// NewRunContext constructs a RunContext.
func NewRunContext(
	ctx context.Context,
	sessionID, runID string,
	agent AgentDescriptor,
	emit chan<- Event,
	maxProviderCalls int,
	logger logging.Logger,
) *RunContext {
	return &RunContext{
		Context:   ctx,
		SessionID: sessionID,
		RunID:     runID,
		Agent:     agent,
		Emit:      emit,
		Limiter:   NewCallLimiter(maxProviderCalls),
		runLogger: newRunLogger(logger, agent.Name),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }

// EmitEvent stamps ev with run and author and sends it on the emit channel.
// It blocks while the channel is full and returns the context error when
// the run is cancelled first.
func (rc *RunContext) EmitEvent(ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	if err := rc.Context.Err(); err != nil {
		return err
	}

	ev = ev.withAuthor(rc.RunID, rc.Agent.Name)

	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
		return nil
	}
}

// Child returns a RunContext for a nested agent. It shares cancellation,
// identifiers, the limiter and the logger; events go to emit.
func (rc *RunContext) Child(agent AgentDescriptor, emit chan<- Event) *RunContext {
	c := *rc
	c.Agent = agent
	c.Emit = emit
	c.runLogger = newRunLogger(rc.Logger(), agent.Name)

	return &c
}

// Forward re-emits an event produced by a nested agent, keeping its author.
// Events without an author are stamped like EmitEvent.
func (rc *RunContext) Forward(ev Event) error {
	if ev.Author == "" {
		return rc.EmitEvent(ev)
	}

	if err := ev.Validate(); err != nil {
		return err
	}

	ev = ev.withAuthor(rc.RunID, ev.Author)

	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case rc.Emit <- ev:
		return nil
	}
}

// EmitThought emits a Thought event.
func (rc *RunContext) EmitThought(text string) error {
	ev, err := NewThought(text)
	if err != nil {
		return err
	}

	return rc.EmitEvent(ev)
}

// EmitOutput emits an Output event for msg.
func (rc *RunContext) EmitOutput(msg Message) error {
	ev, err := NewOutput(msg)
	if err != nil {
		return err
	}

	return rc.EmitEvent(ev)
}

// EmitOutputText emits a single-part text Output.
func (rc *RunContext) EmitOutputText(s string) error {
	return rc.EmitOutput(NewTextMessage("", s))
}

// Sleep pauses for d or until the run is cancelled.
func (rc *RunContext) Sleep(d time.Duration) error {
	if d <= 0 {
		return rc.Context.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-rc.Context.Done():
		return rc.Context.Err()
	case <-t.C:
		return nil
	}
}
