// Package logging defines the Logger interface shared by the engine, agents,
// transport and CLIs, plus slog-backed implementations.
//
// The package includes:
//
//   - Logger interface for dependency injection
//   - StructuredLogger, a slog JSON/text logger with component and run context
//   - NoOpLogger for silent operation (tests, embedding)
//
// Usage:
//
//	logger := logging.New(logging.Config{Level: logging.LogLevelInfo, Format: "json"})
//	eng := engine.New(reg, func(o *engine.Options) { o.Logger = logger.WithComponent("engine") })
package logging
