// Package engine dispatches runs to the agents of a registry.Registry.
//
// The Engine validates each request against the target agent's descriptor,
// creates a run record in a core.RunStore and executes the agent on its own
// goroutine. The agent produces events on a bounded channel; a second
// goroutine drains it, records every event and forwards it to the caller:
//
//	caller ──Invoke──▶ Engine ──RunContext──▶ Agent.Run
//	  ▲                   │                       │
//	  └──── events ◀── processEvents ◀── emit ────┘
//	                      │
//	                      ▼
//	                  RunStore
//
// Runs end completed, failed (runner error, panic, RunTimeout) or
// cancelled (Engine.Cancel or the caller's context). Concurrency is capped
// with a weighted semaphore; excess invocations fail fast with
// core.ErrTooManyRuns.
//
// Lifecycle hooks are registered on a CallbackManager (BeforeRun, AfterRun,
// OnEvent, OnError). The HTTP transport uses them for its metrics.
package engine
