package core

import "context"

// RunRequest is a request to run a registered agent over input messages.
type RunRequest struct {
	AgentName string    `json:"agent_name"`
	SessionID string    `json:"session_id,omitempty"`
	Input     []Message `json:"input"`
}

// Engine dispatches runs to registered agents. It is the surface consumed by
// transports.
type Engine interface {
	Agents() []AgentDescriptor
	Agent(name string) (AgentDescriptor, error)

	Invoke(ctx context.Context, req RunRequest) (string, <-chan Event, <-chan error, error)
	InvokeSync(ctx context.Context, req RunRequest) (*Run, error)

	Run(runID string) (*Run, error)
	Events(runID string) ([]Event, error)
	SessionRuns(sessionID string) ([]*Run, error)
	Cancel(runID string) error
}
