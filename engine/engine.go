package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Shivvam/agent-communication-protocol/core"
	"github.com/Shivvam/agent-communication-protocol/logging"
	"github.com/Shivvam/agent-communication-protocol/registry"
	"github.com/Shivvam/agent-communication-protocol/session"
)

// Config defines tuning parameters for the Engine's operational behavior.
//
// Example:
//
//	cfg := Config{
//	    MaxConcurrentRuns: 50,
//	    EventBufferSize:   256,
//	    RunTimeout:        time.Minute,
//	}
type Config struct {
	// MaxConcurrentRuns limits the number of runs executing simultaneously.
	// Invocations beyond the limit are rejected with core.ErrTooManyRuns.
	// Set to 0 for unlimited.
	MaxConcurrentRuns int

	// EventBufferSize sets the capacity of the runner's emit channel and of
	// the channel handed to the caller. A full channel blocks the runner.
	EventBufferSize int

	// RunTimeout bounds the wall time of a run. A run exceeding it fails.
	// Set to 0 to disable.
	RunTimeout time.Duration

	// MaxProviderCalls caps Answer Provider calls per run. 0 is unlimited.
	MaxProviderCalls int
}

// DefaultConfig provides default configuration values.
var DefaultConfig = Config{
	MaxConcurrentRuns: 10,
	EventBufferSize:   100,
	RunTimeout:        5 * time.Minute,
	MaxProviderCalls:  0,
}

// Options configures an Engine instance using the functional options pattern.
//
// Example:
//
//	eng := engine.New(reg, func(o *engine.Options) {
//	    o.Config.MaxConcurrentRuns = 50
//	    o.RunStore = sqliteStore
//	    o.Logger = logger
//	})
type Options struct {
	// Config contains operational parameters. Defaults to DefaultConfig.
	Config Config

	// RunStore persists run records and event history.
	// Defaults to an in-memory implementation.
	RunStore core.RunStore

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger

	// Callbacks are executed at the lifecycle points of every run.
	Callbacks *CallbackManager
}

// Engine dispatches runs to registered agents and manages their lifecycle.
//
// Concurrency Model:
//   - One runner goroutine per run, producing events on a bounded channel
//   - One processing goroutine per run, draining that channel, recording
//     events and forwarding them to the caller
//   - Bounded concurrent runs through a weighted semaphore
//   - Per-run cancellation via Cancel, the caller's context or RunTimeout
//
// Run Lifecycle:
//  1. The request is validated against the agent's descriptor
//  2. The run record is created and moved to in-progress
//  3. Events are recorded and streamed as the agent emits them
//  4. The run ends completed, failed or cancelled
//
// Runner errors and panics never escape: they are recorded on the run and
// reported on the error channel.
type Engine struct {
	registry  *registry.Registry
	store     core.RunStore
	logger    logging.Logger
	config    Config
	callbacks *CallbackManager
	sem       *semaphore.Weighted

	activeRuns map[string]context.CancelFunc
	runsMu     sync.RWMutex
}

var _ core.Engine = (*Engine)(nil)

// New creates a new Engine dispatching to the agents of reg.
func New(reg *registry.Registry, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:    DefaultConfig,
		RunStore:  session.NewInMemoryStore(),
		Logger:    logging.NoOpLogger{},
		Callbacks: NewCallbackManager(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Config.EventBufferSize <= 0 {
		opts.Config.EventBufferSize = DefaultConfig.EventBufferSize
	}

	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}

	e := &Engine{
		registry:   reg,
		store:      opts.RunStore,
		logger:     opts.Logger,
		config:     opts.Config,
		callbacks:  opts.Callbacks,
		activeRuns: make(map[string]context.CancelFunc),
	}

	if opts.Config.MaxConcurrentRuns > 0 {
		e.sem = semaphore.NewWeighted(int64(opts.Config.MaxConcurrentRuns))
	}

	return e
}

// Callbacks returns the engine's callback manager.
func (e *Engine) Callbacks() *CallbackManager { return e.callbacks }

// Agents returns the descriptors of all registered agents sorted by name.
func (e *Engine) Agents() []core.AgentDescriptor { return e.registry.Descriptors() }

// Agent returns the descriptor of a registered agent.
func (e *Engine) Agent(name string) (core.AgentDescriptor, error) {
	return e.registry.Descriptor(name)
}

// Invoke starts a run asynchronously and returns channels for real-time
// event streaming.
//
// Immediate errors (agent not found, unsupported content type, too many
// runs) are returned directly. Once started, events are delivered on the
// events channel, which is closed when the run reached a terminal status.
// A failed or cancelled run reports its error on the errors channel, which
// is closed right after the events channel.
//
// Example:
//
//	runID, events, errs, err := eng.Invoke(ctx, core.RunRequest{
//	    AgentName: "Echo_Agent",
//	    Input:     []core.Message{core.NewUserMessage("hey hey")},
//	})
//	if err != nil {
//	    return err
//	}
//
//	for ev := range events {
//	    handle(ev)
//	}
//
//	if err := <-errs; err != nil {
//	    return fmt.Errorf("run %s: %w", runID, err)
//	}
func (e *Engine) Invoke(ctx context.Context, req core.RunRequest) (string, <-chan core.Event, <-chan error, error) {
	agent, err := e.registry.Lookup(req.AgentName)
	if err != nil {
		return "", nil, nil, err
	}

	descriptor := agent.Descriptor()

	if err := descriptor.CheckInput(req.Input); err != nil {
		return "", nil, nil, err
	}

	if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeRun, &CallbackContext{Request: req}); err != nil {
		return "", nil, nil, fmt.Errorf("run rejected: %w", err)
	}

	if e.sem != nil && !e.sem.TryAcquire(1) {
		return "", nil, nil, fmt.Errorf("%w: limit is %d", core.ErrTooManyRuns, e.config.MaxConcurrentRuns)
	}

	runID := core.NewID()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = core.NewID()
	}

	if err := e.store.Create(core.NewRun(runID, descriptor.Name, sessionID, req.Input)); err != nil {
		e.release()
		return "", nil, nil, fmt.Errorf("failed to create run: %w", err)
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)

	if e.config.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.config.RunTimeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}

	e.runsMu.Lock()
	e.activeRuns[runID] = cancel
	e.runsMu.Unlock()

	if err := e.store.Update(runID, func(r *core.Run) { r.Transition(core.RunInProgress) }); err != nil {
		e.logger.Warn("failed to mark run in progress", "run_id", runID, "error", err)
	}

	eventsCh := make(chan core.Event, e.config.EventBufferSize)
	errorsCh := make(chan error, 1)
	agentEmit := make(chan core.Event, e.config.EventBufferSize)
	runDone := make(chan error, 1)

	rc := core.NewRunContext(
		runCtx,
		sessionID,
		runID,
		descriptor,
		agentEmit,
		e.config.MaxProviderCalls,
		scopedLogger(e.logger, sessionID, runID),
	)

	input := make([]core.Message, len(req.Input))
	for i, m := range req.Input {
		input[i] = m.Clone()
	}

	start := time.Now()

	e.logger.Debug("run started", "run_id", runID, "session_id", sessionID, "agent", descriptor.Name, "messages", len(input))

	// Runner: the producer side of the emit channel.
	go func() {
		defer close(agentEmit)
		runDone <- e.runAgent(rc, agent, input)
	}()

	// Consumer: records and forwards events, then finalizes the run.
	go func() {
		defer func() {
			close(eventsCh)
			close(errorsCh)
		}()

		procErr := e.processEvents(runCtx, cancel, req, runID, agentEmit, eventsCh)
		runErr := <-runDone

		if termErr := e.finish(runCtx, req, runID, start, runErr, procErr); termErr != nil {
			errorsCh <- termErr
		}
	}()

	return runID, eventsCh, errorsCh, nil
}

// InvokeSync executes a run and blocks until it reached a terminal status.
//
// The returned record carries the final status and outputs; a failed or
// cancelled run is not an error here. Errors are returned only when the
// run could not be started or its record could not be read.
func (e *Engine) InvokeSync(ctx context.Context, req core.RunRequest) (*core.Run, error) {
	runID, eventsCh, errorsCh, err := e.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	for range eventsCh { //nolint:revive
		// drained; events are recorded in the store
	}

	<-errorsCh

	return e.store.Get(runID)
}

// Cancel requests cancellation of an active run. The run moves to
// cancelling and ends cancelled once its runner stopped. Unknown or
// already finished runs return core.ErrRunNotFound.
func (e *Engine) Cancel(runID string) error {
	e.runsMu.RLock()
	cancel, exists := e.activeRuns[runID]
	e.runsMu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s is not active", core.ErrRunNotFound, runID)
	}

	if err := e.store.Update(runID, func(r *core.Run) { r.Transition(core.RunCancelling) }); err != nil {
		return err
	}

	cancel()

	e.logger.Info("run cancellation requested", "run_id", runID)

	return nil
}

// Run returns the current record of a run.
func (e *Engine) Run(runID string) (*core.Run, error) {
	return e.store.Get(runID)
}

// Events returns the recorded events of a run in emission order.
func (e *Engine) Events(runID string) ([]core.Event, error) {
	return e.store.Events(runID)
}

// SessionRuns returns the runs of a session in creation order. An unknown
// session has no runs.
func (e *Engine) SessionRuns(sessionID string) ([]*core.Run, error) {
	return e.store.ListSession(sessionID)
}

// ActiveRuns returns the number of runs not yet finished.
func (e *Engine) ActiveRuns() int {
	e.runsMu.RLock()
	defer e.runsMu.RUnlock()

	return len(e.activeRuns)
}

func (e *Engine) runAgent(rc *core.RunContext, agent core.Agent, input []core.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent %s panicked: %v", rc.Agent.Name, r)
		}
	}()

	return agent.Run(rc, input)
}

// processEvents drains the runner's emit channel until it is closed.
//
// Every event is recorded in the store and forwarded to the caller. A store
// failure cancels the run; the remaining events are drained and dropped so
// the runner can exit. Forwarding stops once the run context is done.
func (e *Engine) processEvents(
	ctx context.Context,
	cancel context.CancelFunc,
	req core.RunRequest,
	runID string,
	agentEmit <-chan core.Event,
	eventsCh chan<- core.Event,
) error {
	var procErr error

	for ev := range agentEmit {
		if procErr != nil {
			continue
		}

		if err := e.store.AppendEvent(runID, ev); err != nil {
			procErr = fmt.Errorf("failed to record event: %w", err)
			cancel()

			continue
		}

		if err := e.callbacks.ExecuteCallbacks(ctx, CallbackOnEvent, &CallbackContext{Request: req, Event: &ev}); err != nil {
			e.logger.Warn("event callback failed", "run_id", runID, "error", err)
		}

		select {
		case <-ctx.Done():
		case eventsCh <- ev:
			e.logger.Debug("engine delivered event", "event_id", ev.ID, "run_id", runID, "kind", string(ev.Kind()))
		}
	}

	return procErr
}

// finish records the terminal status of a run, releases its resources and
// fires the AfterRun / OnError callbacks. It returns the error reported on
// the run's error channel.
func (e *Engine) finish(
	ctx context.Context,
	req core.RunRequest,
	runID string,
	start time.Time,
	runErr, procErr error,
) error {
	ctxErr := ctx.Err()

	var termErr error

	status := core.RunCompleted

	switch {
	case procErr != nil:
		termErr, status = procErr, core.RunFailed
	case runErr == nil:
	case errors.Is(ctxErr, context.DeadlineExceeded):
		termErr, status = fmt.Errorf("run timed out: %w", runErr), core.RunFailed
	case errors.Is(ctxErr, context.Canceled):
		termErr, status = fmt.Errorf("run cancelled: %w", context.Canceled), core.RunCancelled
	default:
		termErr, status = runErr, core.RunFailed
	}

	err := e.store.Update(runID, func(r *core.Run) {
		if status == core.RunFailed {
			r.Fail("server_error", termErr)
			return
		}

		r.Transition(status)
	})
	if err != nil {
		e.logger.Error("failed to finalize run", "run_id", runID, "error", err)
	}

	e.runsMu.Lock()
	cancel := e.activeRuns[runID]
	delete(e.activeRuns, runID)
	e.runsMu.Unlock()

	if cancel != nil {
		cancel()
	}

	e.release()

	duration := time.Since(start)

	run, err := e.store.Get(runID)
	if err != nil {
		e.logger.Error("failed to read finished run", "run_id", runID, "error", err)
		return termErr
	}

	if rl, ok := scopedLogger(e.logger, run.SessionID, runID).(interface {
		LogRun(agent, status string, dur time.Duration, err error)
	}); ok {
		rl.LogRun(run.AgentName, string(run.Status), duration, termErr)
	} else {
		e.logger.Info("run finished", "run_id", runID, "agent", run.AgentName, "status", string(run.Status), "duration", duration)
	}

	// callbacks outlive the run context
	cbCtx := context.WithoutCancel(ctx)
	cc := &CallbackContext{Request: req, Run: run, Err: termErr, Duration: duration}

	if run.Status == core.RunFailed {
		if err := e.callbacks.ExecuteCallbacks(cbCtx, CallbackOnError, cc); err != nil {
			e.logger.Warn("error callback failed", "run_id", runID, "error", err)
		}
	}

	if err := e.callbacks.ExecuteCallbacks(cbCtx, CallbackAfterRun, cc); err != nil {
		e.logger.Warn("after-run callback failed", "run_id", runID, "error", err)
	}

	return termErr
}

func (e *Engine) release() {
	if e.sem != nil {
		e.sem.Release(1)
	}
}

func scopedLogger(l logging.Logger, sessionID, runID string) logging.Logger {
	if sl, ok := l.(*logging.StructuredLogger); ok {
		return sl.WithRun(sessionID, runID)
	}

	return l
}
