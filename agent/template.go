package agent

import (
	"fmt"
	"time"

	"github.com/Shivvam/agent-communication-protocol/core"
)

// DefaultDelay is the pause before and after each progress thought.
const DefaultDelay = 500 * time.Millisecond

// Producer turns one input message into its result message.
type Producer func(rc *core.RunContext, msg core.Message) (core.Message, error)

// Preparer runs once per run before any message is processed and returns
// the Producer for that run. A failure ends the run after a single thought.
type Preparer func(rc *core.RunContext) (Producer, error)

// TemplateOptions configures a Template.
type TemplateOptions struct {
	// Progress is the thought announced before each result.
	Progress string
	// Delay is slept before and after the progress thought.
	Delay time.Duration
	// Produce builds the result for one message. Ignored when Prepare is set.
	Produce Producer
	// Prepare resolves per-run dependencies and returns the run's Producer.
	Prepare Preparer
	// ErrorThought formats the thought emitted when producing a result fails.
	ErrorThought func(err error) string
}

// Template is the parameterized "announce intent, then deliver" runner.
//
// For every input message, in order, it sleeps Delay, emits the Progress
// thought, sleeps Delay again and emits the produced Output. A failing
// Produce call is reported as a thought and the run moves on to the next
// message. A failing Prepare is reported as one thought and ends the run
// without outputs. Cancellation stops the run at the next suspension point.
type Template struct {
	BaseAgent
	opts TemplateOptions
}

// NewTemplate creates a Template agent for d.
func NewTemplate(d core.AgentDescriptor, optFns ...func(o *TemplateOptions)) *Template {
	opts := TemplateOptions{
		Delay:        DefaultDelay,
		ErrorThought: func(err error) string { return fmt.Sprintf("Error: %v", err) },
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Template{BaseAgent: NewBaseAgent(d), opts: opts}
}

// Run implements core.Agent.
func (t *Template) Run(rc *core.RunContext, inputs []core.Message) error {
	produce := t.opts.Produce

	if t.opts.Prepare != nil {
		p, err := t.opts.Prepare(rc)
		if err != nil {
			if ctxErr := rc.Err(); ctxErr != nil {
				return ctxErr
			}

			rc.LogWarn("run dependencies unavailable", "error", err)

			return rc.EmitThought(t.opts.ErrorThought(err))
		}

		produce = p
	}

	if produce == nil {
		return fmt.Errorf("agent %s has no result producer", t.Name())
	}

	for i, msg := range inputs {
		if err := rc.Err(); err != nil {
			return err
		}

		if err := t.announce(rc); err != nil {
			return err
		}

		ev, err := produceEvent(rc, produce, msg)
		if err != nil {
			if ctxErr := rc.Err(); ctxErr != nil {
				return ctxErr
			}

			rc.LogWarn("message failed", "index", i, "error", err)

			if err := rc.EmitThought(t.opts.ErrorThought(err)); err != nil {
				return err
			}

			continue
		}

		if err := rc.EmitEvent(ev); err != nil {
			return err
		}
	}

	return nil
}

// produceEvent runs the producer and validates its result as an Output, so
// a malformed result is isolated to its message.
func produceEvent(rc *core.RunContext, produce Producer, msg core.Message) (core.Event, error) {
	result, err := produce(rc, msg)
	if err != nil {
		return core.Event{}, err
	}

	return core.NewOutput(result)
}

func (t *Template) announce(rc *core.RunContext) error {
	if err := rc.Sleep(t.opts.Delay); err != nil {
		return err
	}

	if t.opts.Progress != "" {
		if err := rc.EmitThought(t.opts.Progress); err != nil {
			return err
		}
	}

	return rc.Sleep(t.opts.Delay)
}
