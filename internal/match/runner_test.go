package match

import (
	"sync"
	"testing"
	"time"

	"github.com/OCAP2/royale/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []core.Event
}

func (s *recordingSink) Publish(_ string, events []core.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

func (s *recordingSink) snapshot() []core.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Event(nil), s.events...)
}

// shortConfig ends by timeout a few ticks after the start.
func shortConfig() Config {
	cfg := testConfig()
	cfg.TickRate = 100
	cfg.MaxDuration = 100 * time.Millisecond
	return cfg
}

func TestRunner_RunsUntilEnd(t *testing.T) {
	sink := &recordingSink{}
	m := newTestMatch(t, shortConfig(), []string{"a", "b"})
	ended := make(chan *Match, 1)
	r := NewRunner(m, sink, OnEnded(func(m *Match) { ended <- m }))

	require.NoError(t, r.Run())
	assert.ErrorIs(t, r.Run(), ErrRunnerStarted)

	select {
	case got := <-ended:
		assert.Same(t, m, got)
	case <-time.After(5 * time.Second):
		t.Fatal("match did not end")
	}
	<-r.Done()

	events := sink.snapshot()
	require.NotEmpty(t, events)
	assert.Equal(t, core.EventMatchStarted, events[0].Type)
	assert.Len(t, eventsOf(events, core.EventMatchEnded), 1)
	assert.Equal(t, core.EventGameTick, events[len(events)-1].Type)
	assert.Equal(t, core.PhaseEnded, r.State().Phase)

	r.Stop()
}

func TestRunner_StopHaltsTicks(t *testing.T) {
	m := newTestMatch(t, testConfig(), []string{"a", "b"})
	r := NewRunner(m, EventSinkFunc(func(string, []core.Event) {}))
	require.NoError(t, r.Run())

	assert.Eventually(t, func() bool { return r.State().Tick > 2 }, 5*time.Second, 10*time.Millisecond)
	r.Stop()

	tick := m.GameState().Tick
	time.Sleep(3 * m.TickInterval())
	assert.Equal(t, tick, m.GameState().Tick)
	assert.False(t, m.Ended())

	r.Stop()
}

func TestRunner_StopBeforeRun(t *testing.T) {
	m := newTestMatch(t, testConfig(), []string{"a", "b"})
	r := NewRunner(m, nil)

	r.Stop()
	assert.ErrorIs(t, r.Run(), ErrRunnerStopped)
	assert.Equal(t, core.PhaseLobby, r.State().Phase)
}

func TestRunner_StartError(t *testing.T) {
	m := newTestMatch(t, testConfig(), []string{"a", "b"})
	require.NoError(t, m.Start())

	r := NewRunner(m, nil)
	assert.ErrorIs(t, r.Run(), ErrNotInLobby)
}
