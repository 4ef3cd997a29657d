package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Shivvam/agent-communication-protocol/agent"
	"github.com/Shivvam/agent-communication-protocol/core"
	"github.com/Shivvam/agent-communication-protocol/internal/testutil"
	"github.com/Shivvam/agent-communication-protocol/registry"
)

type mockAgent struct {
	mock.Mock
}

func (m *mockAgent) Descriptor() core.AgentDescriptor {
	return m.Called().Get(0).(core.AgentDescriptor)
}

func (m *mockAgent) Run(rc *core.RunContext, inputs []core.Message) error {
	return m.Called(rc, inputs).Error(0)
}

func noDelay(o *agent.TemplateOptions) { o.Delay = 0 }

func slow(o *agent.TemplateOptions) { o.Delay = time.Hour }

func newTestEngine(t *testing.T, agents []core.Agent, optFns ...func(o *Options)) *Engine {
	t.Helper()

	reg, err := registry.New(agents...)
	require.NoError(t, err)

	return New(reg, optFns...)
}

func drain(events <-chan core.Event, errs <-chan error) ([]core.Event, error) {
	var out []core.Event
	for ev := range events {
		out = append(out, ev)
	}

	return out, <-errs
}

func TestEngine_InvokeSyncEcho(t *testing.T) {
	eng := newTestEngine(t, []core.Agent{agent.NewEchoAgent(noDelay)})

	run, err := eng.InvokeSync(context.Background(), core.RunRequest{
		AgentName: agent.EchoName,
		Input:     testutil.UserMessages("hey hey"),
	})
	require.NoError(t, err)

	assert.Equal(t, core.RunCompleted, run.Status)
	assert.NotEmpty(t, run.SessionID)
	assert.NotNil(t, run.FinishedAt)
	require.Len(t, run.Output, 1)
	assert.Equal(t, "hey hey", run.Output[0].Text())
	assert.Equal(t, "agent/Echo_Agent", run.Output[0].Role)

	events, err := eng.Events(run.RunID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].IsThought())
	assert.True(t, events[1].IsOutput())
	assert.Equal(t, run.RunID, events[1].RunID)
	assert.Equal(t, agent.EchoName, events[1].Author)
}

func TestEngine_EchoesMessageWithoutParts(t *testing.T) {
	eng := newTestEngine(t, []core.Agent{agent.NewEchoAgent(noDelay)})

	run, err := eng.InvokeSync(context.Background(), core.RunRequest{
		AgentName: agent.EchoName,
		Input:     []core.Message{core.NewUserMessage("a"), {Role: core.RoleUser}, core.NewUserMessage("c")},
	})
	require.NoError(t, err)

	assert.Equal(t, core.RunCompleted, run.Status)
	require.Len(t, run.Output, 3)
	assert.Equal(t, "a", run.Output[0].Text())
	assert.Empty(t, run.Output[1].Parts)
	assert.Equal(t, "agent/Echo_Agent", run.Output[1].Role)
	assert.Equal(t, "c", run.Output[2].Text())
}

func TestEngine_SessionRuns(t *testing.T) {
	eng := newTestEngine(t, []core.Agent{agent.NewEchoAgent(noDelay), agent.NewDoNothingAgent(noDelay)})

	first, err := eng.InvokeSync(context.Background(), core.RunRequest{AgentName: agent.EchoName, SessionID: "s1", Input: testutil.UserMessages("a")})
	require.NoError(t, err)
	second, err := eng.InvokeSync(context.Background(), core.RunRequest{AgentName: agent.DoNothingName, SessionID: "s1", Input: testutil.UserMessages("b")})
	require.NoError(t, err)
	_, err = eng.InvokeSync(context.Background(), core.RunRequest{AgentName: agent.EchoName, SessionID: "s2"})
	require.NoError(t, err)

	runs, err := eng.SessionRuns("s1")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first.RunID, runs[0].RunID)
	assert.Equal(t, second.RunID, runs[1].RunID)

	runs, err = eng.SessionRuns("unknown")
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestEngine_InvokeStreamsInOrder(t *testing.T) {
	eng := newTestEngine(t, []core.Agent{agent.NewDoNothingAgent(noDelay)})

	runID, eventsCh, errs, err := eng.Invoke(context.Background(), core.RunRequest{
		AgentName: agent.DoNothingName,
		SessionID: "session-1",
		Input:     testutil.UserMessages("a", "b"),
	})
	require.NoError(t, err)

	events, runErr := drain(eventsCh, errs)
	require.NoError(t, runErr)

	assert.Equal(t, []core.EventKind{
		core.EventThought, core.EventOutput,
		core.EventThought, core.EventOutput,
	}, testutil.Kinds(events))
	assert.Equal(t, []string{"I will do nothing", "I will do nothing"}, testutil.OutputTexts(events))

	run, err := eng.Run(runID)
	require.NoError(t, err)
	assert.Equal(t, "session-1", run.SessionID)
	assert.Equal(t, core.RunCompleted, run.Status)
	assert.Equal(t, 0, eng.ActiveRuns())
}

func TestEngine_RejectsInvalidRequests(t *testing.T) {
	eng := newTestEngine(t, []core.Agent{agent.NewEchoAgent(noDelay)})

	_, _, _, err := eng.Invoke(context.Background(), core.RunRequest{AgentName: "Unknown_Agent"})
	assert.ErrorIs(t, err, core.ErrAgentNotFound)

	image := core.NewMessage(core.RoleUser, core.Part{ContentType: "image/png", Content: "aGk=", ContentEncoding: core.EncodingBase64})
	_, _, _, err = eng.Invoke(context.Background(), core.RunRequest{
		AgentName: agent.EchoName,
		Input:     []core.Message{image},
	})
	assert.ErrorIs(t, err, core.ErrUnsupportedContentType)

	_, err = eng.Agent("Unknown_Agent")
	assert.ErrorIs(t, err, core.ErrAgentNotFound)
}

func TestEngine_Cancel(t *testing.T) {
	eng := newTestEngine(t, []core.Agent{agent.NewEchoAgent(slow)})

	runID, eventsCh, errs, err := eng.Invoke(context.Background(), core.RunRequest{
		AgentName: agent.EchoName,
		Input:     testutil.UserMessages("a", "b"),
	})
	require.NoError(t, err)

	require.NoError(t, eng.Cancel(runID))

	events, runErr := drain(eventsCh, errs)
	assert.Empty(t, events)
	assert.ErrorIs(t, runErr, context.Canceled)

	run, err := eng.Run(runID)
	require.NoError(t, err)
	assert.Equal(t, core.RunCancelled, run.Status)
	assert.Empty(t, run.Output)

	assert.ErrorIs(t, eng.Cancel(runID), core.ErrRunNotFound)
	assert.ErrorIs(t, eng.Cancel("unknown"), core.ErrRunNotFound)
}

func TestEngine_CallerContextCancelsRun(t *testing.T) {
	eng := newTestEngine(t, []core.Agent{agent.NewEchoAgent(slow)})

	ctx, cancel := context.WithCancel(context.Background())

	runID, eventsCh, errs, err := eng.Invoke(ctx, core.RunRequest{
		AgentName: agent.EchoName,
		Input:     testutil.UserMessages("a"),
	})
	require.NoError(t, err)

	cancel()

	_, runErr := drain(eventsCh, errs)
	assert.ErrorIs(t, runErr, context.Canceled)

	run, err := eng.Run(runID)
	require.NoError(t, err)
	assert.Equal(t, core.RunCancelled, run.Status)
}

func TestEngine_RunTimeout(t *testing.T) {
	eng := newTestEngine(t, []core.Agent{agent.NewEchoAgent(slow)}, func(o *Options) {
		o.Config.RunTimeout = 50 * time.Millisecond
	})

	run, err := eng.InvokeSync(context.Background(), core.RunRequest{
		AgentName: agent.EchoName,
		Input:     testutil.UserMessages("a"),
	})
	require.NoError(t, err)

	assert.Equal(t, core.RunFailed, run.Status)
	require.NotNil(t, run.Error)
	assert.Equal(t, "server_error", run.Error.Code)
	assert.Contains(t, run.Error.Message, "timed out")
}

func TestEngine_TooManyRuns(t *testing.T) {
	eng := newTestEngine(t, []core.Agent{agent.NewEchoAgent(slow)}, func(o *Options) {
		o.Config.MaxConcurrentRuns = 1
	})

	req := core.RunRequest{AgentName: agent.EchoName, Input: testutil.UserMessages("a")}

	runID, eventsCh, errs, err := eng.Invoke(context.Background(), req)
	require.NoError(t, err)

	_, _, _, err = eng.Invoke(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrTooManyRuns)

	require.NoError(t, eng.Cancel(runID))
	_, _ = drain(eventsCh, errs)

	// the slot is released once the first run finished
	runID, eventsCh, errs, err = eng.Invoke(context.Background(), req)
	require.NoError(t, err)

	require.NoError(t, eng.Cancel(runID))
	_, _ = drain(eventsCh, errs)
}

func TestEngine_AgentErrorAndPanic(t *testing.T) {
	failing := &mockAgent{}
	failing.On("Descriptor").Return(core.NewTextDescriptor("Failing_Agent", "fails"))
	failing.On("Run", mock.Anything, mock.Anything).Return(errors.New("boom"))

	panicking := &mockAgent{}
	panicking.On("Descriptor").Return(core.NewTextDescriptor("Panicking_Agent", "panics"))
	panicking.On("Run", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("unexpected state")
	}).Return(nil)

	eng := newTestEngine(t, []core.Agent{failing, panicking})

	run, err := eng.InvokeSync(context.Background(), core.RunRequest{AgentName: "Failing_Agent"})
	require.NoError(t, err)
	assert.Equal(t, core.RunFailed, run.Status)
	assert.Equal(t, "boom", run.Error.Message)

	run, err = eng.InvokeSync(context.Background(), core.RunRequest{AgentName: "Panicking_Agent"})
	require.NoError(t, err)
	assert.Equal(t, core.RunFailed, run.Status)
	assert.Contains(t, run.Error.Message, "panicked")

	failing.AssertExpectations(t)
	panicking.AssertExpectations(t)
}

func TestEngine_MockAgentReceivesRunContext(t *testing.T) {
	a := &mockAgent{}
	a.On("Descriptor").Return(core.NewTextDescriptor("Mock_Agent", "mock"))
	a.On("Run", mock.AnythingOfType("*core.RunContext"), mock.Anything).Run(func(args mock.Arguments) {
		rc := args.Get(0).(*core.RunContext)
		inputs := args.Get(1).([]core.Message)

		_ = rc.EmitThought("session " + rc.SessionID)
		_ = rc.EmitOutputText(inputs[0].Text() + "!")
	}).Return(nil)

	eng := newTestEngine(t, []core.Agent{a}, func(o *Options) {
		o.Config.MaxProviderCalls = 2
	})

	run, err := eng.InvokeSync(context.Background(), core.RunRequest{
		AgentName: "Mock_Agent",
		SessionID: "s-42",
		Input:     testutil.UserMessages("hi"),
	})
	require.NoError(t, err)

	assert.Equal(t, core.RunCompleted, run.Status)
	require.Len(t, run.Output, 1)
	assert.Equal(t, "hi!", run.Output[0].Text())

	events, err := eng.Events(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "session s-42", events[0].Thought())

	a.AssertNumberOfCalls(t, "Run", 1)

	for _, call := range a.Calls {
		if call.Method == "Run" {
			rc := call.Arguments.Get(0).(*core.RunContext)
			assert.Equal(t, 2, rc.Limiter.Remaining())
			assert.Equal(t, run.RunID, rc.RunID)
		}
	}
}

func TestEngine_Callbacks(t *testing.T) {
	var before, after, onEvent, onError atomic.Int32

	cm := NewCallbackManager()
	cm.RegisterCallback(
		NewFunctionCallback(CallbackBeforeRun, func(_ context.Context, cc *CallbackContext) error {
			before.Add(1)
			if cc.Request.SessionID == "blocked" {
				return errors.New("blocked session")
			}
			return nil
		}),
		NewFunctionCallback(CallbackAfterRun, func(_ context.Context, cc *CallbackContext) error {
			after.Add(1)
			assert.True(t, cc.Run.Status.IsTerminal())
			return nil
		}),
		NewFunctionCallback(CallbackOnEvent, func(_ context.Context, cc *CallbackContext) error {
			onEvent.Add(1)
			return nil
		}),
		NewFunctionCallback(CallbackOnError, func(_ context.Context, cc *CallbackContext) error {
			onError.Add(1)
			return nil
		}),
	)

	eng := newTestEngine(t, []core.Agent{agent.NewEchoAgent(noDelay)}, func(o *Options) {
		o.Callbacks = cm
	})

	_, err := eng.InvokeSync(context.Background(), core.RunRequest{
		AgentName: agent.EchoName,
		Input:     testutil.UserMessages("a", "b"),
	})
	require.NoError(t, err)

	_, err = eng.InvokeSync(context.Background(), core.RunRequest{AgentName: agent.EchoName, SessionID: "blocked"})
	assert.ErrorContains(t, err, "blocked session")

	assert.Equal(t, int32(2), before.Load())
	assert.Equal(t, int32(1), after.Load())
	assert.Equal(t, int32(4), onEvent.Load())
	assert.Equal(t, int32(0), onError.Load())
}

func TestEngine_ConcurrentRunsAreIsolated(t *testing.T) {
	eng := newTestEngine(t, []core.Agent{agent.NewEchoAgent(noDelay)}, func(o *Options) {
		o.Config.MaxConcurrentRuns = 0
	})

	const n = 8

	results := make(chan *core.Run, n)
	for i := 0; i < n; i++ {
		text := string(rune('a' + i))
		go func() {
			run, err := eng.InvokeSync(context.Background(), core.RunRequest{
				AgentName: agent.EchoName,
				Input:     testutil.UserMessages(text),
			})
			assert.NoError(t, err)
			results <- run
		}()
	}

	for i := 0; i < n; i++ {
		run := <-results
		require.NotNil(t, run)
		require.Len(t, run.Output, 1)
		assert.Equal(t, run.Input[0].Text(), run.Output[0].Text())
	}
}
