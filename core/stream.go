package core

import (
	"encoding/json"
	"fmt"
)

// StreamEventType names a frame of a streamed run.
type StreamEventType string

const (
	StreamRunCreated       StreamEventType = "run.created"
	StreamRunInProgress    StreamEventType = "run.in-progress"
	StreamMessageThought   StreamEventType = "message.thought"
	StreamMessageCompleted StreamEventType = "message.completed"
	StreamRunCompleted     StreamEventType = "run.completed"
	StreamRunFailed        StreamEventType = "run.failed"
	StreamRunCancelled     StreamEventType = "run.cancelled"
)

// IsRun reports whether frames of this type carry a run record.
func (t StreamEventType) IsRun() bool {
	switch t {
	case StreamRunCreated, StreamRunInProgress, StreamRunCompleted, StreamRunFailed, StreamRunCancelled:
		return true
	}

	return false
}

// IsTerminal reports whether the frame ends the stream.
func (t StreamEventType) IsTerminal() bool {
	return t == StreamRunCompleted || t == StreamRunFailed || t == StreamRunCancelled
}

// StreamEvent is one frame of a streamed run: either a run snapshot or an
// agent event.
type StreamEvent struct {
	Type  StreamEventType
	Run   *Run
	Event *Event
}

// RunStreamEvent wraps a run snapshot, choosing the frame type from its status.
func RunStreamEvent(run *Run) StreamEvent {
	t := StreamRunInProgress

	switch run.Status {
	case RunCreated:
		t = StreamRunCreated
	case RunCompleted:
		t = StreamRunCompleted
	case RunFailed:
		t = StreamRunFailed
	case RunCancelled:
		t = StreamRunCancelled
	}

	return StreamEvent{Type: t, Run: run}
}

// EventStreamEvent wraps an agent event.
func EventStreamEvent(ev Event) StreamEvent {
	t := StreamMessageCompleted
	if ev.IsThought() {
		t = StreamMessageThought
	}

	return StreamEvent{Type: t, Event: &ev}
}

// Data returns the frame payload: the run record, {"thought": ...} or the
// output Message.
func (s StreamEvent) Data() any {
	if s.Event != nil {
		return s.Event.Payload()
	}

	return s.Run
}

// MarshalJSON encodes the frame as {"type": ..., "data": ...}.
func (s StreamEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type StreamEventType `json:"type"`
		Data any             `json:"data"`
	}{s.Type, s.Data()})
}

// UnmarshalJSON decodes a frame produced by MarshalJSON.
func (s *StreamEvent) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type StreamEventType `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	ev, err := ParseStreamEvent(raw.Type, raw.Data)
	if err != nil {
		return err
	}

	*s = ev

	return nil
}

// ParseStreamEvent decodes the payload of a frame of the given type.
func ParseStreamEvent(t StreamEventType, data []byte) (StreamEvent, error) {
	switch {
	case t.IsRun():
		var run Run
		if err := json.Unmarshal(data, &run); err != nil {
			return StreamEvent{}, fmt.Errorf("%w: %s: %v", ErrInvalidEvent, t, err)
		}

		return StreamEvent{Type: t, Run: &run}, nil
	case t == StreamMessageThought || t == StreamMessageCompleted:
		ev, err := ParseEvent(data)
		if err != nil {
			return StreamEvent{}, err
		}

		if (t == StreamMessageThought) != ev.IsThought() {
			return StreamEvent{}, fmt.Errorf("%w: %s frame carries a %s", ErrInvalidEvent, t, ev.Kind())
		}

		return StreamEvent{Type: t, Event: &ev}, nil
	default:
		return StreamEvent{}, fmt.Errorf("%w: unknown stream event type %q", ErrInvalidEvent, t)
	}
}
