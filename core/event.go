package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates the closed set of run events.
type EventKind string

const (
	// EventThought is a diagnostic progress notice. It never carries result data.
	EventThought EventKind = "thought"
	// EventOutput is a deliverable result message.
	EventOutput EventKind = "output"
)

// Event is one unit streamed from a run: either a Thought or an Output.
//
// The payload fields are unexported so an Event can only be built through
// NewThought, NewOutput or NewOutputText, which validate their input. The
// envelope fields (ID, RunID, Author, Timestamp) are stamped by the emitter.
type Event struct {
	ID        string
	RunID     string
	Author    string
	Timestamp time.Time

	kind    EventKind
	thought string
	output  *Message
}

// NewThought creates a Thought event. The text must not be empty.
func NewThought(text string) (Event, error) {
	if text == "" {
		return Event{}, fmt.Errorf("%w: empty thought", ErrInvalidEvent)
	}

	return Event{ID: NewID(), Timestamp: time.Now().UTC(), kind: EventThought, thought: text}, nil
}

// NewOutput creates an Output event for msg. Every part must be valid; a
// message without parts is a valid (empty) result.
func NewOutput(msg Message) (Event, error) {
	if err := msg.Validate(); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	m := NewMessage(msg.Role, msg.Parts...)
	m.CreatedAt, m.CompletedAt = msg.CreatedAt, msg.CompletedAt

	return Event{ID: NewID(), Timestamp: time.Now().UTC(), kind: EventOutput, output: &m}, nil
}

// NewOutputText promotes a raw string to a single-part text/plain Output.
func NewOutputText(s string) (Event, error) {
	return NewOutput(NewTextMessage("", s))
}

// NewID returns a fresh random identifier.
func NewID() string { return uuid.NewString() }

// Kind returns the event variant.
func (e Event) Kind() EventKind { return e.kind }

// IsThought reports whether e is a Thought.
func (e Event) IsThought() bool { return e.kind == EventThought }

// IsOutput reports whether e is an Output.
func (e Event) IsOutput() bool { return e.kind == EventOutput }

// Thought returns the thought text, or "" for outputs.
func (e Event) Thought() string { return e.thought }

// Output returns the output message and whether e is an Output.
func (e Event) Output() (Message, bool) {
	if e.output == nil {
		return Message{}, false
	}

	return e.output.Clone(), true
}

// Validate rejects zero-value or inconsistent events.
func (e Event) Validate() error {
	switch e.kind {
	case EventThought:
		if e.thought == "" || e.output != nil {
			return fmt.Errorf("%w: malformed thought", ErrInvalidEvent)
		}
	case EventOutput:
		if e.output == nil || e.thought != "" {
			return fmt.Errorf("%w: malformed output", ErrInvalidEvent)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.kind)
	}

	return nil
}

// withAuthor returns a copy stamped with run and author. Output messages
// without a role are attributed to the agent.
func (e Event) withAuthor(runID, author string) Event {
	e.RunID = runID
	e.Author = author

	if e.output != nil && e.output.Role == "" {
		m := e.output.WithRole(AgentRole(author))
		e.output = &m
	}

	return e
}

type thoughtPayload struct {
	Thought string `json:"thought"`
}

// Payload returns the wire shape of the event: {"thought": ...} for
// thoughts or the Message for outputs.
func (e Event) Payload() any {
	if e.output != nil {
		return e.output.Clone()
	}

	return thoughtPayload{Thought: e.thought}
}

type eventEnvelope struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id,omitempty"`
	Author    string    `json:"author,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventKind `json:"type"`
	Thought   string    `json:"thought,omitempty"`
	Message   *Message  `json:"message,omitempty"`
}

// MarshalJSON encodes the event envelope together with its payload.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventEnvelope{
		ID:        e.ID,
		RunID:     e.RunID,
		Author:    e.Author,
		Timestamp: e.Timestamp,
		Type:      e.kind,
		Thought:   e.thought,
		Message:   e.output,
	})
}

// UnmarshalJSON decodes an envelope produced by MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var env eventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	ev := Event{ID: env.ID, RunID: env.RunID, Author: env.Author, Timestamp: env.Timestamp, kind: env.Type}

	switch env.Type {
	case EventThought:
		ev.thought = env.Thought
	case EventOutput:
		ev.output = env.Message
	}

	if err := ev.Validate(); err != nil {
		return err
	}

	*e = ev

	return nil
}

// ParseEvent decodes a bare wire payload: a JSON string (shorthand for a
// text output), a {"thought": ...} object or a Message-shaped object.
func ParseEvent(raw []byte) (Event, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Event{}, fmt.Errorf("%w: empty payload", ErrInvalidEvent)
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}

		return NewOutputText(s)
	}

	var probe struct {
		Thought *string `json:"thought"`
		Parts   []Part  `json:"parts"`
		Role    string  `json:"role"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	switch {
	case probe.Thought != nil && probe.Parts != nil:
		return Event{}, fmt.Errorf("%w: payload is both thought and message", ErrInvalidEvent)
	case probe.Thought != nil:
		return NewThought(*probe.Thought)
	case probe.Parts != nil:
		return NewOutput(Message{Role: probe.Role, Parts: probe.Parts})
	default:
		return Event{}, fmt.Errorf("%w: unrecognized payload", ErrInvalidEvent)
	}
}
