// Package providers maps Answer Provider names to client factories and the
// environment variables holding their credentials.
package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/Shivvam/agent-communication-protocol/model"
	"github.com/Shivvam/agent-communication-protocol/model/anthropic"
	"github.com/Shivvam/agent-communication-protocol/model/gemini"
	"github.com/Shivvam/agent-communication-protocol/model/openai"
)

// Settings tune the model built by a provider factory.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Provider describes one Answer Provider backend.
type Provider struct {
	Name   string
	EnvVar string
	New    func(ctx context.Context, apiKey string, s Settings) (model.Model, error)
}

var builtin = map[string]Provider{
	"gemini": {
		Name:   "gemini",
		EnvVar: "GEMINI_API_KEY",
		New: func(ctx context.Context, apiKey string, s Settings) (model.Model, error) {
			return gemini.NewModel(ctx, func(o *gemini.Options) {
				o.APIKey = apiKey
				if s.Model != "" {
					o.Model = s.Model
				}
				if s.Temperature > 0 {
					o.Temperature = s.Temperature
				}
				if s.MaxTokens > 0 {
					o.MaxOutputTokens = int32(s.MaxTokens)
				}
			})
		},
	},
	"openai": {
		Name:   "openai",
		EnvVar: "OPENAI_API_KEY",
		New: func(_ context.Context, apiKey string, s Settings) (model.Model, error) {
			return openai.NewModel(func(o *openai.Options) {
				o.APIKey = apiKey
				if s.Model != "" {
					o.Model = s.Model
				}
				if s.Temperature > 0 {
					o.Temperature = s.Temperature
				}
				if s.MaxTokens > 0 {
					o.MaxCompletionTokens = int64(s.MaxTokens)
				}
			}), nil
		},
	},
	"anthropic": {
		Name:   "anthropic",
		EnvVar: "ANTHROPIC_API_KEY",
		New: func(_ context.Context, apiKey string, s Settings) (model.Model, error) {
			return anthropic.NewModel(func(o *anthropic.Options) {
				o.APIKey = apiKey
				if s.Model != "" {
					o.Model = anthropicsdk.Model(s.Model)
				}
				if s.Temperature > 0 {
					o.Temperature = s.Temperature
				}
				if s.MaxTokens > 0 {
					o.MaxTokens = int64(s.MaxTokens)
				}
			}), nil
		},
	},
}

// Lookup returns the named provider.
func Lookup(name string) (Provider, error) {
	p, ok := builtin[strings.ToLower(name)]
	if !ok {
		return Provider{}, fmt.Errorf("unknown provider %q (supported: %s)", name, strings.Join(Names(), ", "))
	}

	return p, nil
}

// Names lists the supported provider names.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// Resolver returns a model.Resolver reading the credential from envVar (or
// the provider's default variable) on every run.
func (p Provider) Resolver(envVar string, s Settings) model.Resolver {
	if envVar == "" {
		envVar = p.EnvVar
	}

	return model.EnvResolver{
		EnvVar: envVar,
		Factory: func(ctx context.Context, apiKey string) (model.Model, error) {
			return p.New(ctx, apiKey, s)
		},
	}
}
