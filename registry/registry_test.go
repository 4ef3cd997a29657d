package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivvam/agent-communication-protocol/agent"
	"github.com/Shivvam/agent-communication-protocol/core"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r, err := New(agent.NewEchoAgent(), agent.NewDoNothingAgent())
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	a, err := r.Lookup("Echo_Agent")
	require.NoError(t, err)
	assert.Equal(t, "Echo_Agent", a.Descriptor().Name)

	_, err = r.Lookup("missing")
	assert.ErrorIs(t, err, core.ErrAgentNotFound)

	_, err = r.Descriptor("missing")
	assert.ErrorIs(t, err, core.ErrAgentNotFound)
}

func TestRegistry_Empty(t *testing.T) {
	r := Empty()
	assert.Zero(t, r.Len())
	assert.Empty(t, r.Descriptors())

	require.NoError(t, r.Register(agent.NewEchoAgent()))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_DuplicateNames(t *testing.T) {
	r, err := New(agent.NewEchoAgent())
	require.NoError(t, err)

	err = r.Register(agent.NewEchoAgent())
	assert.ErrorIs(t, err, core.ErrDuplicateAgent)

	// duplicates within one call leave the registry untouched
	err = r.Register(agent.NewDoNothingAgent(), agent.NewDoNothingAgent())
	assert.ErrorIs(t, err, core.ErrDuplicateAgent)
	assert.Equal(t, 1, r.Len())

	_, err = New(agent.NewEchoAgent(), agent.NewEchoAgent())
	assert.ErrorIs(t, err, core.ErrDuplicateAgent)
}

func TestRegistry_InvalidDescriptor(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	err = r.Register(core.AgentFunc{Desc: core.AgentDescriptor{Name: "no types"}})
	assert.ErrorIs(t, err, core.ErrInvalidDescriptor)

	err = r.Register(nil)
	assert.ErrorIs(t, err, core.ErrInvalidDescriptor)

	assert.Panics(t, func() { r.MustRegister(nil) })
}

func TestRegistry_DescriptorsSortedAndCopied(t *testing.T) {
	r, err := New(agent.NewEchoAgent(), agent.NewDoNothingAgent())
	require.NoError(t, err)

	ds := r.Descriptors()
	require.Len(t, ds, 2)
	assert.Equal(t, "Do_Nothing_Agent", ds[0].Name)
	assert.Equal(t, "Echo_Agent", ds[1].Name)

	ds[0].InputContentTypes[0] = "image/png"
	d, err := r.Descriptor("Do_Nothing_Agent")
	require.NoError(t, err)
	assert.Equal(t, []string{"text/plain"}, d.InputContentTypes)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r, err := New(agent.NewEchoAgent())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Lookup("Echo_Agent")
			_ = r.Descriptors()
		}()
	}
	wg.Wait()
}
