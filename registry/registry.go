// Package registry provides the explicit agent registry handed to the
// engine at startup. Names are unique within a Registry.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Shivvam/agent-communication-protocol/core"
)

// Registry is a goroutine-safe set of agents keyed by descriptor name.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]entry
}

type entry struct {
	agent      core.Agent
	descriptor core.AgentDescriptor
}

// Empty creates a registry with no agents.
func Empty() *Registry {
	return &Registry{agents: make(map[string]entry)}
}

// New creates a registry holding agents. It fails on invalid descriptors
// or duplicate names.
func New(agents ...core.Agent) (*Registry, error) {
	r := Empty()

	if err := r.Register(agents...); err != nil {
		return nil, err
	}

	return r, nil
}

// Register adds agents. Registration is all-or-nothing: on error none of
// the given agents is added.
func (r *Registry) Register(agents ...core.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make(map[string]entry, len(agents))

	for _, a := range agents {
		if a == nil {
			return fmt.Errorf("%w: nil agent", core.ErrInvalidDescriptor)
		}

		d := a.Descriptor()
		if err := d.Validate(); err != nil {
			return err
		}

		if _, exists := r.agents[d.Name]; exists {
			return fmt.Errorf("%w: %s", core.ErrDuplicateAgent, d.Name)
		}

		if _, exists := staged[d.Name]; exists {
			return fmt.Errorf("%w: %s", core.ErrDuplicateAgent, d.Name)
		}

		staged[d.Name] = entry{agent: a, descriptor: d.Clone()}
	}

	for name, e := range staged {
		r.agents[name] = e
	}

	return nil
}

// MustRegister is like Register but panics on error. Intended for startup wiring.
func (r *Registry) MustRegister(agents ...core.Agent) {
	if err := r.Register(agents...); err != nil {
		panic(err)
	}
}

// Lookup returns the agent registered under name.
func (r *Registry) Lookup(name string) (core.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrAgentNotFound, name)
	}

	return e.agent, nil
}

// Descriptor returns the descriptor captured at registration.
func (r *Registry) Descriptor(name string) (core.AgentDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.agents[name]
	if !ok {
		return core.AgentDescriptor{}, fmt.Errorf("%w: %s", core.ErrAgentNotFound, name)
	}

	return e.descriptor.Clone(), nil
}

// Descriptors lists all descriptors sorted by name.
func (r *Registry) Descriptors() []core.AgentDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.AgentDescriptor, 0, len(r.agents))
	for _, e := range r.agents {
		out = append(out, e.descriptor.Clone())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.agents)
}
