package core

import (
	"time"

	"github.com/Shivvam/agent-communication-protocol/logging"
)

// runLogger is embedded in RunContext. Every record carries the name of the
// agent doing the logging; run and session identifiers come from the
// engine's scoped logger.
type runLogger struct {
	base  logging.Logger
	agent string
}

func newRunLogger(l logging.Logger, agent string) *runLogger {
	if l == nil {
		l = logging.NoOpLogger{}
	}

	return &runLogger{base: l, agent: agent}
}

func (l *runLogger) args(args []any) []any {
	return append([]any{"agent", l.agent}, args...)
}

// Logger returns the logger without the agent attribute.
func (l *runLogger) Logger() logging.Logger { return l.base }

func (l *runLogger) LogDebug(msg string, args ...any) { l.base.Debug(msg, l.args(args)...) }
func (l *runLogger) LogInfo(msg string, args ...any)  { l.base.Info(msg, l.args(args)...) }
func (l *runLogger) LogWarn(msg string, args ...any)  { l.base.Warn(msg, l.args(args)...) }
func (l *runLogger) LogError(msg string, args ...any) { l.base.Error(msg, l.args(args)...) }

// LogProviderCall records one Answer Provider call with its latency and
// outcome.
func (l *runLogger) LogProviderCall(provider, model string, dur time.Duration, err error) {
	if sl, ok := l.base.(*logging.StructuredLogger); ok {
		sl.With("agent", l.agent).LogProviderCall(provider, model, dur, err)
		return
	}

	args := l.args([]any{"provider", provider, "model", model, "duration", dur, "success", err == nil})
	if err != nil {
		l.base.Error("Provider call failed", append(args, "error", err.Error())...)
		return
	}

	l.base.Info("Provider call completed", args...)
}
