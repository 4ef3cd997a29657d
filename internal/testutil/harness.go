package testutil

import (
	"context"

	"github.com/Shivvam/agent-communication-protocol/core"
)

// RunAgent executes a directly in-process, without an engine, and returns
// every emitted event in order together with the error returned by Run.
func RunAgent(ctx context.Context, a core.Agent, inputs []core.Message) ([]core.Event, error) {
	emit := make(chan core.Event, 4)
	rc := core.NewRunContext(ctx, "test-session", core.NewID(), a.Descriptor(), emit, 0, nil)

	errCh := make(chan error, 1)
	go func() {
		defer close(emit)
		errCh <- a.Run(rc, inputs)
	}()

	events := Collect(emit)

	return events, <-errCh
}

// Collect drains ch until it is closed.
func Collect(ch <-chan core.Event) []core.Event {
	var events []core.Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

// Kinds returns the kind of every event.
func Kinds(events []core.Event) []core.EventKind {
	kinds := make([]core.EventKind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind()
	}
	return kinds
}

// Outputs returns the output messages in order.
func Outputs(events []core.Event) []core.Message {
	var out []core.Message
	for _, ev := range events {
		if msg, ok := ev.Output(); ok {
			out = append(out, msg)
		}
	}
	return out
}

// OutputTexts returns the text of every output message in order.
func OutputTexts(events []core.Event) []string {
	var out []string
	for _, msg := range Outputs(events) {
		out = append(out, msg.Text())
	}
	return out
}

// Thoughts returns the text of every thought in order.
func Thoughts(events []core.Event) []string {
	var out []string
	for _, ev := range events {
		if ev.IsThought() {
			out = append(out, ev.Thought())
		}
	}
	return out
}
