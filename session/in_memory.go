package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Shivvam/agent-communication-protocol/core"
)

// ErrRunExists is returned by Create for an already stored run ID.
var ErrRunExists = errors.New("run already exists")

// InMemoryStore is a volatile RunStore implementation storing runs and
// their event history in process local maps. It is safe for concurrent
// access. Each returned run is cloned to prevent external mutation of
// internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	runs     map[string]*core.Run
	events   map[string][]core.Event
	sessions map[string][]string
}

// NewInMemoryStore constructs an empty in-memory run store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		runs:     make(map[string]*core.Run),
		events:   make(map[string][]core.Event),
		sessions: make(map[string][]string),
	}
}

// Create stores a clone of run.
func (s *InMemoryStore) Create(run *core.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.RunID]; ok {
		return fmt.Errorf("%w: %s", ErrRunExists, run.RunID)
	}

	s.runs[run.RunID] = run.Clone()

	if run.SessionID != "" {
		s.sessions[run.SessionID] = append(s.sessions[run.SessionID], run.RunID)
	}

	return nil
}

// Get returns a clone of the stored run.
func (s *InMemoryStore) Get(runID string) (*core.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}

	return run.Clone(), nil
}

// Update applies fn to the stored run while holding the write lock.
func (s *InMemoryStore) Update(runID string, fn func(r *core.Run)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}

	fn(run)

	return nil
}

// AppendEvent records ev for its run. Output events also extend the run's
// output messages.
func (s *InMemoryStore) AppendEvent(runID string, ev core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}

	s.events[runID] = append(s.events[runID], ev)

	if msg, ok := ev.Output(); ok {
		run.Output = append(run.Output, msg)
	}

	return nil
}

// Events returns a copy of the run's event history.
func (s *InMemoryStore) Events(runID string) ([]core.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.runs[runID]; !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}

	return append([]core.Event{}, s.events[runID]...), nil
}

// ListSession returns the session's runs in creation order.
func (s *InMemoryStore) ListSession(sessionID string) ([]*core.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.sessions[sessionID]
	out := make([]*core.Run, 0, len(ids))

	for _, id := range ids {
		out = append(out, s.runs[id].Clone())
	}

	return out, nil
}
