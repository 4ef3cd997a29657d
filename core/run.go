package core

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunCreated    RunStatus = "created"
	RunInProgress RunStatus = "in-progress"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
	RunCancelling RunStatus = "cancelling"
	RunCancelled  RunStatus = "cancelled"
)

// IsTerminal reports whether no further transition can happen.
func (s RunStatus) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed || s == RunCancelled
}

// RunError describes why a run failed.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Run is the record of one agent invocation.
type Run struct {
	RunID      string     `json:"run_id"`
	AgentName  string     `json:"agent_name"`
	SessionID  string     `json:"session_id,omitempty"`
	Status     RunStatus  `json:"status"`
	Input      []Message  `json:"input,omitempty"`
	Output     []Message  `json:"output"`
	Error      *RunError  `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewRun creates a run record in the created state.
func NewRun(runID, agentName, sessionID string, input []Message) *Run {
	return &Run{
		RunID:     runID,
		AgentName: agentName,
		SessionID: sessionID,
		Status:    RunCreated,
		Input:     append([]Message(nil), input...),
		Output:    []Message{},
		CreatedAt: time.Now().UTC(),
	}
}

// Transition moves the run to status unless it is already terminal. It
// reports whether the status changed.
func (r *Run) Transition(status RunStatus) bool {
	if r.Status.IsTerminal() {
		return false
	}

	r.Status = status

	if status.IsTerminal() {
		now := time.Now().UTC()
		r.FinishedAt = &now
	}

	return true
}

// Fail moves the run to failed with the given error description.
func (r *Run) Fail(code string, err error) bool {
	if !r.Transition(RunFailed) {
		return false
	}

	r.Error = &RunError{Code: code, Message: err.Error()}

	return true
}

// Clone returns a copy safe to hand out of a store.
func (r *Run) Clone() *Run {
	c := *r
	c.Input = append([]Message(nil), r.Input...)
	c.Output = append([]Message{}, r.Output...)

	if r.Error != nil {
		e := *r.Error
		c.Error = &e
	}

	if r.FinishedAt != nil {
		t := *r.FinishedAt
		c.FinishedAt = &t
	}

	return &c
}

// RunStore persists run records and their event history.
type RunStore interface {
	// Create stores a new run. It fails if the ID already exists.
	Create(run *Run) error
	// Get returns a copy of the run or ErrRunNotFound.
	Get(runID string) (*Run, error)
	// Update applies fn to the stored run under the store's lock.
	Update(runID string, fn func(r *Run)) error
	// AppendEvent records an event; output events are also appended to the
	// run's output.
	AppendEvent(runID string, ev Event) error
	// Events returns the recorded events in emission order.
	Events(runID string) ([]Event, error)
	// ListSession returns the runs of a session ordered by creation.
	ListSession(sessionID string) ([]*Run, error)
}
