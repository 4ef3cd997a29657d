package agent

import (
	"errors"
	"fmt"
	"time"

	"github.com/Shivvam/agent-communication-protocol/core"
	"github.com/Shivvam/agent-communication-protocol/model"
)

// GenerativeName is the default name of the generative agent.
const GenerativeName = "Gemini_Agent"

// GenerativeThought is announced before each provider call.
const GenerativeThought = "I should ask the answer provider"

// GenerativeOptions configures a generative agent.
type GenerativeOptions struct {
	Name        string
	Description string
	// Instruction is the role prompt combined with every user query.
	Instruction Instruction
	// Template tunes the underlying runner (progress text, delay).
	Template []func(o *TemplateOptions)
}

// NewGenerativeAgent returns an agent forwarding each message's text to an
// Answer Provider and emitting the answer.
//
// The provider is resolved once per run. When resolution fails (missing
// credential, unavailable client) the run emits a single thought and ends.
// A failed provider call is reported as a thought and the next message is
// still attempted.
func NewGenerativeAgent(resolver model.Resolver, optFns ...func(o *GenerativeOptions)) *Template {
	opts := GenerativeOptions{
		Name:        GenerativeName,
		Description: "Answers questions with a generative AI model",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	instruction := opts.Instruction

	prepare := func(rc *core.RunContext) (Producer, error) {
		m, err := resolver.Resolve(rc.Context)
		if err != nil {
			return nil, err
		}

		info := m.Info()
		rc.LogDebug("answer provider resolved", "provider", info.Provider, "model", info.Name)

		return func(rc *core.RunContext, msg core.Message) (core.Message, error) {
			if err := rc.Limiter.Increment(); err != nil {
				return core.Message{}, err
			}

			prompt, err := instruction.Prompt(rc, msg.Text())
			if err != nil {
				return core.Message{}, fmt.Errorf("render prompt: %w", err)
			}

			start := time.Now()
			resp, err := m.Generate(rc.Context, model.Request{Prompt: prompt})
			rc.LogProviderCall(info.Provider, info.Name, time.Since(start), err)

			if err != nil {
				return core.Message{}, model.WrapError(info, err)
			}

			return core.NewTextMessage("", resp.Text), nil
		}, nil
	}

	fns := append([]func(o *TemplateOptions){func(o *TemplateOptions) {
		o.Progress = GenerativeThought
		o.Prepare = prepare
		o.ErrorThought = generativeErrorThought
	}}, opts.Template...)

	return NewTemplate(core.NewTextDescriptor(opts.Name, opts.Description), fns...)
}

func generativeErrorThought(err error) string {
	var pe *model.ProviderError

	switch {
	case errors.Is(err, model.ErrMissingCredential):
		return fmt.Sprintf("Cannot answer: %v", err)
	case errors.Is(err, model.ErrProviderUnavailable):
		return fmt.Sprintf("Answer provider unavailable: %v", err)
	case errors.As(err, &pe):
		return fmt.Sprintf("Error generating answer: %v", pe)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
