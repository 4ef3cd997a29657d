package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	acp "github.com/Shivvam/agent-communication-protocol"
	"github.com/Shivvam/agent-communication-protocol/client"
	"github.com/Shivvam/agent-communication-protocol/core"
)

func newTestClient(t *testing.T) *client.Client {
	t.Helper()

	app := acp.New()
	require.NoError(t, app.Register(acp.BuiltinAgents(func(o *acp.BuiltinOptions) { o.StepDelay = 0 })...))

	ts := httptest.NewServer(app.Handler())
	t.Cleanup(ts.Close)

	return client.New(ts.URL)
}

func TestDemo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, demo(context.Background(), newTestClient(t), &buf))

	out := buf.String()
	assert.Contains(t, out, "Do_Nothing_Agent")
	assert.Contains(t, out, "agent/Echo_Agent: hey hey to echo from client!")
	assert.Contains(t, out, "message.thought")
	assert.Contains(t, out, "message.completed  Howdy!")
	assert.Contains(t, out, `output=["Howdy!"]`)
}

func TestStream_Live(t *testing.T) {
	var buf bytes.Buffer
	err := stream(context.Background(), newTestClient(t), &buf, true, "Do_Nothing_Agent", messages([]string{"a", "b"})...)
	require.NoError(t, err)

	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("I will do nothing\n")))
	assert.Contains(t, buf.String(), "run.completed")
}

func TestStream_UnknownAgent(t *testing.T) {
	err := stream(context.Background(), newTestClient(t), &bytes.Buffer{}, false, "Nope")
	assert.True(t, client.IsNotFound(err))
}

func TestPrintRun_Failed(t *testing.T) {
	run := core.NewRun("r1", "X", "", nil)
	run.Fail("server_error", assert.AnError)

	var buf bytes.Buffer
	printRun(&buf, run)

	assert.Contains(t, buf.String(), "run r1: failed")
	assert.Contains(t, buf.String(), "error: server_error")
}

func TestPrintSessionRuns(t *testing.T) {
	var buf bytes.Buffer
	printSessionRuns(&buf, nil)
	assert.Equal(t, "no runs\n", buf.String())

	c := client.New(newTestClient(t).BaseURL(), func(o *client.Options) { o.SessionID = "s1" })
	_, err := c.RunSync(context.Background(), "Echo_Agent", core.NewUserMessage("hi"))
	require.NoError(t, err)

	runs, err := c.SessionRuns(context.Background(), "s1")
	require.NoError(t, err)

	buf.Reset()
	printSessionRuns(&buf, runs)
	assert.Contains(t, buf.String(), runs[0].RunID)
	assert.Contains(t, buf.String(), "completed")
	assert.Contains(t, buf.String(), "Echo_Agent")
	assert.Contains(t, buf.String(), "outputs=1")
}
