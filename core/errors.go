package core

import "errors"

var (
	// ErrAgentNotFound is returned when no agent is registered under a name.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrDuplicateAgent is returned when a name is registered twice.
	ErrDuplicateAgent = errors.New("agent already registered")

	// ErrInvalidDescriptor is returned for descriptors failing validation.
	ErrInvalidDescriptor = errors.New("invalid agent descriptor")

	// ErrUnsupportedContentType is returned when input content is not
	// accepted by the target agent.
	ErrUnsupportedContentType = errors.New("unsupported content type")

	// ErrInvalidMessage is returned for malformed messages or parts.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidEvent is returned when an event cannot be constructed or parsed.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrRunNotFound is returned for unknown run identifiers.
	ErrRunNotFound = errors.New("run not found")

	// ErrTooManyRuns is returned when the concurrent run limit is reached.
	ErrTooManyRuns = errors.New("too many concurrent runs")

	// ErrCallLimitExceeded is returned once a run used up its provider calls.
	ErrCallLimitExceeded = errors.New("provider call limit exceeded")
)
