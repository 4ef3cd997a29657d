// Package acp provides a high-level façade over the registry, the engine and
// the HTTP transport of an Agent Communication Protocol server. Most
// applications interact with this package by:
//  1. Creating an ACP via New() (optionally overriding the in-memory run store)
//  2. Registering one or more agents (BuiltinAgents or custom core.Agent values)
//  3. Invoking agents in-process (Invoke, InvokeSync) or serving them over HTTP (Handler)
package acp

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Shivvam/agent-communication-protocol/agent"
	"github.com/Shivvam/agent-communication-protocol/core"
	"github.com/Shivvam/agent-communication-protocol/engine"
	"github.com/Shivvam/agent-communication-protocol/logging"
	"github.com/Shivvam/agent-communication-protocol/model"
	"github.com/Shivvam/agent-communication-protocol/registry"
	"github.com/Shivvam/agent-communication-protocol/server"
	"github.com/Shivvam/agent-communication-protocol/session"
)

// Options configures the ACP instance.
type Options struct {
	// EngineConfig bounds concurrency, buffering and run duration.
	EngineConfig engine.Config
	// RunStore defaults to an in-memory store.
	RunStore core.RunStore
	// Logger defaults to NoOp.
	Logger logging.Logger
	// Server tunes the transport returned by Server and Handler.
	Server []func(o *server.Options)
}

// ACP aggregates a registry, an engine and its transport.
type ACP struct {
	opts     Options
	registry *registry.Registry
	engine   *engine.Engine

	serverOnce sync.Once
	server     *server.Server
}

// New creates an ACP instance with no agents registered.
func New(optFns ...func(o *Options)) *ACP {
	opts := Options{
		EngineConfig: engine.DefaultConfig,
		RunStore:     session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	reg := registry.Empty()

	eng := engine.New(reg, func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.RunStore = opts.RunStore
		o.Logger = opts.Logger
	})

	return &ACP{opts: opts, registry: reg, engine: eng}
}

// Register adds agents. Either all are registered or none.
func (a *ACP) Register(agents ...core.Agent) error { return a.registry.Register(agents...) }

// Registry exposes the agent registry.
func (a *ACP) Registry() *registry.Registry { return a.registry }

// Engine exposes the underlying engine.
func (a *ACP) Engine() *engine.Engine { return a.engine }

// Invoke starts a run returning event and error channels.
func (a *ACP) Invoke(ctx context.Context, agentName string, input ...core.Message) (string, <-chan core.Event, <-chan error, error) {
	return a.engine.Invoke(ctx, core.RunRequest{AgentName: agentName, Input: input})
}

// InvokeSync runs an agent to completion and returns the finished run.
func (a *ACP) InvokeSync(ctx context.Context, agentName string, input ...core.Message) (*core.Run, error) {
	return a.engine.InvokeSync(ctx, core.RunRequest{AgentName: agentName, Input: input})
}

// Server returns the HTTP transport for the registered agents. It is built
// on first use and shared by later calls.
func (a *ACP) Server() *server.Server {
	a.serverOnce.Do(func() {
		fns := append([]func(o *server.Options){func(o *server.Options) { o.Logger = a.opts.Logger }}, a.opts.Server...)
		a.server = server.New(a.engine, fns...)
	})

	return a.server
}

// Handler is shorthand for Server().Handler().
func (a *ACP) Handler() http.Handler { return a.Server().Handler() }

// BuiltinOptions configures BuiltinAgents.
type BuiltinOptions struct {
	// StepDelay is the pause after each event. Negative keeps the default.
	StepDelay time.Duration
	// Resolver backs the generative agents. They are omitted when nil.
	Resolver model.Resolver
	// Expert registers the Expert_Agent next to the generative agent.
	Expert bool
}

// BuiltinAgents returns the stock agents: Echo_Agent, Do_Nothing_Agent and,
// when a resolver is configured, Gemini_Agent and optionally Expert_Agent.
func BuiltinAgents(optFns ...func(o *BuiltinOptions)) []core.Agent {
	opts := BuiltinOptions{StepDelay: -1, Expert: true}

	for _, fn := range optFns {
		fn(&opts)
	}

	delay := func(o *agent.TemplateOptions) {
		if opts.StepDelay >= 0 {
			o.Delay = opts.StepDelay
		}
	}

	agents := []core.Agent{agent.NewEchoAgent(delay), agent.NewDoNothingAgent(delay)}

	if opts.Resolver == nil {
		return agents
	}

	generative := func(o *agent.GenerativeOptions) { o.Template = append(o.Template, delay) }

	agents = append(agents, agent.NewGenerativeAgent(opts.Resolver, generative))
	if opts.Expert {
		agents = append(agents, agent.NewExpertAgent(opts.Resolver, generative))
	}

	return agents
}
