package agent

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivvam/agent-communication-protocol/core"
	"github.com/Shivvam/agent-communication-protocol/internal/testutil"
)

func upperAgent() *Template {
	return NewTemplate(core.NewTextDescriptor("Upper_Agent", "upper-cases text"), noDelay, func(o *TemplateOptions) {
		o.Progress = "shouting"
		o.Produce = func(_ *core.RunContext, msg core.Message) (core.Message, error) {
			return core.NewTextMessage("", strings.ToUpper(msg.Text())), nil
		}
	})
}

func TestSequentialAgent_Pipeline(t *testing.T) {
	a := NewSequentialAgent(core.NewTextDescriptor("Pipeline", "echo then shout"), NewEchoAgent(noDelay), upperAgent())

	events, err := testutil.RunAgent(context.Background(), a, testutil.UserMessages("hey", "you"))
	require.NoError(t, err)

	assert.Equal(t, []string{"HEY", "YOU"}, testutil.OutputTexts(events))
	assert.Equal(t, "agent/Upper_Agent", testutil.Outputs(events)[0].Role)

	assert.Equal(t, []string{
		EchoThought, "Echo_Agent: hey",
		EchoThought, "Echo_Agent: you",
		"shouting", "shouting",
	}, testutil.Thoughts(events))

	assert.Equal(t, "Echo_Agent", events[0].Author)
	assert.Equal(t, "Upper_Agent", events[len(events)-1].Author)
}

func TestSequentialAgent_StopsOnError(t *testing.T) {
	failing := core.AgentFunc{
		Desc: core.NewTextDescriptor("Failing", ""),
		Fn: func(*core.RunContext, []core.Message) error {
			return errors.New("boom")
		},
	}
	reached := false
	after := core.AgentFunc{
		Desc: core.NewTextDescriptor("After", ""),
		Fn: func(*core.RunContext, []core.Message) error {
			reached = true
			return nil
		},
	}

	_, err := testutil.RunAgent(context.Background(),
		NewSequentialAgent(core.NewTextDescriptor("Pipeline", ""), failing, after),
		testutil.UserMessages("x"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed at agent Failing")
	assert.False(t, reached)
}

func TestParallelAgent_FanOut(t *testing.T) {
	a := NewParallelAgent(core.NewTextDescriptor("Fan", "echo and do nothing"), 0,
		NewEchoAgent(noDelay), NewDoNothingAgent(noDelay))

	events, err := testutil.RunAgent(context.Background(), a, testutil.UserMessages("a", "b"))
	require.NoError(t, err)

	outputs := testutil.OutputTexts(events)
	sort.Strings(outputs)
	assert.Equal(t, []string{"I will do nothing", "I will do nothing", "a", "b"}, outputs)

	byAuthor := map[string][]core.EventKind{}
	for _, ev := range events {
		byAuthor[ev.Author] = append(byAuthor[ev.Author], ev.Kind())
	}

	pair := []core.EventKind{core.EventThought, core.EventOutput, core.EventThought, core.EventOutput}
	assert.Equal(t, pair, byAuthor["Echo_Agent"])
	assert.Equal(t, pair, byAuthor["Do_Nothing_Agent"])
}

func TestParallelAgent_Timeout(t *testing.T) {
	slow := NewEchoAgent(func(o *TemplateOptions) { o.Delay = time.Hour })
	a := NewParallelAgent(core.NewTextDescriptor("Fan", ""), 20*time.Millisecond, slow, NewDoNothingAgent(noDelay))

	events, err := testutil.RunAgent(context.Background(), a, testutil.UserMessages("a"))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{DoNothingOutput}, testutil.OutputTexts(events))
}
