package engine

import (
	"context"
	"sync"
	"time"

	"github.com/Shivvam/agent-communication-protocol/core"
	"github.com/Shivvam/agent-communication-protocol/logging"
)

// CallbackType defines the lifecycle points where callbacks are executed.
//
// Available callback types:
//   - BeforeRun/AfterRun: Around a complete agent run
//   - OnEvent: For every event recorded for a run
//   - OnError: When a run ends failed
//
// Only BeforeRun callbacks can influence execution: an error rejects the
// invocation before the run starts. Errors from the other types are logged.
type CallbackType string

const (
	// CallbackBeforeRun is triggered after validation, before the run is created.
	CallbackBeforeRun CallbackType = "before_run"

	// CallbackAfterRun is triggered once the run reached a terminal status.
	CallbackAfterRun CallbackType = "after_run"

	// CallbackOnEvent is triggered for every recorded event.
	CallbackOnEvent CallbackType = "on_event"

	// CallbackOnError is triggered when a run fails.
	CallbackOnError CallbackType = "on_error"
)

// CallbackContext carries the information passed to a callback.
type CallbackContext struct {
	// Request is the run request being executed.
	Request core.RunRequest

	// Run is a snapshot of the run record. Nil for BeforeRun.
	Run *core.Run

	// Event is the event being recorded. Only set for OnEvent.
	Event *core.Event

	// Err is the terminal error of the run, if any.
	Err error

	// Duration is the wall time of the run. Only set for AfterRun and OnError.
	Duration time.Duration

	// CallbackType indicates which callback type triggered this execution.
	CallbackType CallbackType
}

// Callback defines the interface for run lifecycle hooks.
//
// Callbacks run synchronously on the engine's goroutines and must be fast.
type Callback interface {
	Type() CallbackType
	Execute(ctx context.Context, cc *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	cb := NewFunctionCallback(CallbackAfterRun, func(ctx context.Context, cc *CallbackContext) error {
//	    log.Printf("run %s ended %s", cc.Run.RunID, cc.Run.Status)
//	    return nil
//	})
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, cc *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, cc *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, cc *CallbackContext) error {
	return c.fn(ctx, cc)
}

// CallbackManager is a registry of callbacks executed at the lifecycle
// points of every run. Callbacks of one type run in registration order and
// the first error stops the chain. It is safe for concurrent use.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates a new callback manager instance.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds callbacks to the manager.
func (cm *CallbackManager) RegisterCallback(callbacks ...Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for _, cb := range callbacks {
		cm.callbacks[cb.Type()] = append(cm.callbacks[cb.Type()], cb)
	}
}

// ExecuteCallbacks executes all registered callbacks for the specified type.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	cc *CallbackContext,
) error {
	cm.mu.RLock()
	callbacks := cm.callbacks[callbackType]
	cm.mu.RUnlock()

	cc.CallbackType = callbackType

	for _, callback := range callbacks {
		if err := callback.Execute(ctx, cc); err != nil {
			return err
		}
	}

	return nil
}

// LoggingCallback logs run lifecycle events through a logging.Logger.
type LoggingCallback struct {
	callbackType CallbackType
	logger       logging.Logger
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger logging.Logger) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute logs the lifecycle event.
func (c *LoggingCallback) Execute(_ context.Context, cc *CallbackContext) error {
	if c.logger == nil {
		return nil
	}

	args := []any{"callback", string(c.callbackType), "agent", cc.Request.AgentName}

	if cc.Run != nil {
		args = append(args, "run_id", cc.Run.RunID, "status", string(cc.Run.Status))
	}

	if cc.Event != nil {
		args = append(args, "event_id", cc.Event.ID, "kind", string(cc.Event.Kind()))
	}

	if cc.Duration > 0 {
		args = append(args, "duration", cc.Duration)
	}

	if cc.Err != nil {
		args = append(args, "error", cc.Err.Error())
		c.logger.Warn("run lifecycle", args...)

		return nil
	}

	c.logger.Debug("run lifecycle", args...)

	return nil
}
