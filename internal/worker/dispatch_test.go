package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/OCAP2/royale/internal/dispatcher"
	"github.com/OCAP2/royale/internal/influx"
	"github.com/OCAP2/royale/internal/match"
	"github.com/OCAP2/royale/internal/storage"
	"github.com/OCAP2/royale/pkg/core"
	"github.com/OCAP2/royale/pkg/streaming"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// mockLogger implements dispatcher.Logger for testing
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *mockLogger) Debug(msg string, keysAndValues ...any) { l.add(msg) }
func (l *mockLogger) Info(msg string, keysAndValues ...any)  { l.add(msg) }
func (l *mockLogger) Error(msg string, keysAndValues ...any) { l.add(msg) }

func (l *mockLogger) add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

// mockBackend implements storage.Backend and storage.Exporter for testing
type mockBackend struct {
	mu sync.Mutex

	calls    []string
	started  []core.MatchInfo
	events   []core.Event
	results  []core.MatchResult
	exported []string
}

var (
	_ storage.Backend  = (*mockBackend)(nil)
	_ storage.Exporter = (*mockBackend)(nil)
)

func (b *mockBackend) Init() error  { return nil }
func (b *mockBackend) Close() error { return nil }

func (b *mockBackend) StartMatch(info core.MatchInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, "start")
	b.started = append(b.started, info)
	return nil
}

func (b *mockBackend) RecordEvents(_ string, events []core.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, "events")
	b.events = append(b.events, events...)
	return nil
}

func (b *mockBackend) EndMatch(res core.MatchResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, "end")
	b.results = append(b.results, res)
	b.exported = append(b.exported, "/tmp/"+res.MatchID+".json.gz")
	return nil
}

func (b *mockBackend) ExportedFiles() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.exported...)
}

func (b *mockBackend) snapshot() ([]string, []core.MatchInfo, []core.MatchResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...),
		append([]core.MatchInfo(nil), b.started...),
		append([]core.MatchResult(nil), b.results...)
}

type mockSettler struct {
	mu       sync.Mutex
	settled  []string
	uploaded []string
}

func (s *mockSettler) Settle(_ context.Context, res core.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settled = append(s.settled, res.MatchID)
	return nil
}

func (s *mockSettler) UploadReplay(_ context.Context, path, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded = append(s.uploaded, path)
	return nil
}

func (s *mockSettler) snapshot() ([]string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.settled...), append([]string(nil), s.uploaded...)
}

type mockBroadcaster struct {
	mu     sync.Mutex
	events []core.Event
}

func (b *mockBroadcaster) Broadcast(_ string, events []core.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, events...)
}

func (b *mockBroadcaster) snapshot() []core.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]core.Event(nil), b.events...)
}

type mockTelemetry struct {
	mu      sync.Mutex
	buckets map[string]int
}

func (t *mockTelemetry) WritePoint(bucket string, _ *influxdb2_write.Point) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.buckets == nil {
		t.buckets = make(map[string]int)
	}
	t.buckets[bucket]++
	return nil
}

func (t *mockTelemetry) count(bucket string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buckets[bucket]
}

func testMatchConfig() match.Config {
	cfg := match.DefaultConfig()
	cfg.Seed = 7
	cfg.World.MapSize = 4000
	cfg.World.Buildings = 0
	cfg.World.Vehicles = 0
	cfg.World.LooseLoot = 0
	return cfg
}

// shortMatchConfig ends by timeout a few ticks after the start.
func shortMatchConfig() match.Config {
	cfg := testMatchConfig()
	cfg.TickRate = 100
	cfg.MaxDuration = 100 * time.Millisecond
	return cfg
}

func newTestWorker(t *testing.T, deps Dependencies) (*Manager, *dispatcher.Dispatcher) {
	t.Helper()
	w, err := NewManager(deps)
	require.NoError(t, err)
	d, err := dispatcher.New(&mockLogger{})
	require.NoError(t, err)
	w.RegisterHandlers(d)
	t.Cleanup(func() {
		d.Close()
		w.Close()
	})
	return w, d
}

func createPayload(t *testing.T, id string, players ...string) []byte {
	t.Helper()
	data, err := msgpack.Marshal(&streaming.CreateMatchPayload{MatchID: id, Players: players})
	require.NoError(t, err)
	return data
}

func TestRegisterHandlers(t *testing.T) {
	_, d := newTestWorker(t, Dependencies{MatchConfig: testMatchConfig()})

	for _, cmd := range []string{
		streaming.TypeInput,
		streaming.TypeCreateMatch,
		streaming.TypeStopMatch,
		streaming.TypeGetState,
	} {
		assert.True(t, d.HasHandler(cmd), cmd)
	}
	assert.False(t, d.HasHandler(streaming.TypeSubscribe), "subscriptions belong to the gateway connection")
}

func TestHandleCreateMatch(t *testing.T) {
	w, d := newTestWorker(t, Dependencies{MatchConfig: testMatchConfig()})

	result, err := d.Dispatch(dispatcher.Event{
		Command: streaming.TypeCreateMatch,
		Payload: createPayload(t, "m-1", "a", "b", "c"),
	})
	require.NoError(t, err)

	info, ok := result.(core.MatchInfo)
	require.True(t, ok)
	assert.Equal(t, "m-1", info.ID)
	assert.Len(t, info.Roster, 3)
	assert.Equal(t, int64(7), info.Seed)
	assert.Equal(t, 1, w.Matches().Active())

	_, err = d.Dispatch(dispatcher.Event{
		Command: streaming.TypeCreateMatch,
		Payload: createPayload(t, "m-1", "a", "b"),
	})
	assert.ErrorIs(t, err, match.ErrMatchExists)

	_, err = d.Dispatch(dispatcher.Event{Command: streaming.TypeCreateMatch, Payload: []byte{0xc1}})
	assert.ErrorContains(t, err, "failed to parse create_match")
}

func TestHandleCreateMatch_SeedAndFallbackID(t *testing.T) {
	w, _ := newTestWorker(t, Dependencies{MatchConfig: testMatchConfig()})

	seed := int64(99)
	data, err := msgpack.Marshal(&streaming.CreateMatchPayload{Players: []string{"a", "b"}, Seed: &seed})
	require.NoError(t, err)

	result, err := w.handleCreateMatch(dispatcher.Event{MatchID: "from-envelope", Payload: data})
	require.NoError(t, err)
	info := result.(core.MatchInfo)
	assert.Equal(t, "from-envelope", info.ID)
	assert.Equal(t, seed, info.Seed)
}

func TestHandleInput(t *testing.T) {
	tel := &mockTelemetry{}
	w, _ := newTestWorker(t, Dependencies{MatchConfig: testMatchConfig(), Telemetry: tel})
	_, err := w.matches.Create("m-1", []string{"a", "b"})
	require.NoError(t, err)

	jump, err := streaming.EncodeInput(1, core.JumpAction{})
	require.NoError(t, err)

	_, err = w.handleInput(dispatcher.Event{MatchID: "m-1", PlayerID: "a", Payload: jump})
	require.NoError(t, err)

	_, err = w.handleInput(dispatcher.Event{MatchID: "m-1", PlayerID: "a", Payload: jump})
	assert.ErrorIs(t, err, ErrInputRejected, "replayed sequence")
	assert.Equal(t, 1, tel.count(influx.BucketAntiCheat))

	_, err = w.handleInput(dispatcher.Event{MatchID: "m-1", Payload: jump})
	assert.ErrorIs(t, err, ErrMissingPlayer)

	_, err = w.handleInput(dispatcher.Event{MatchID: "m-1", PlayerID: "a", Payload: []byte{0xc1}})
	assert.ErrorContains(t, err, "failed to parse input")
}

func TestHandleInput_IsBuffered(t *testing.T) {
	w, d := newTestWorker(t, Dependencies{MatchConfig: testMatchConfig()})
	_, err := w.matches.Create("m-1", []string{"a", "b"})
	require.NoError(t, err)

	jump, err := streaming.EncodeInput(1, core.JumpAction{})
	require.NoError(t, err)
	result, err := d.Dispatch(dispatcher.Event{Command: streaming.TypeInput, MatchID: "m-1", PlayerID: "a", Payload: jump})
	require.NoError(t, err)
	assert.Equal(t, "queued", result)
}

func TestHandleStopAndGetState(t *testing.T) {
	w, d := newTestWorker(t, Dependencies{MatchConfig: testMatchConfig()})
	_, err := w.matches.Create("m-1", []string{"a", "b"})
	require.NoError(t, err)

	result, err := d.Dispatch(dispatcher.Event{Command: streaming.TypeGetState, MatchID: "m-1"})
	require.NoError(t, err)
	state, ok := result.(streaming.StateMessage)
	require.True(t, ok)
	assert.Equal(t, streaming.TypeState, state.Type)
	assert.Equal(t, "m-1", state.State.MatchID)
	assert.Equal(t, core.PhaseDrop, state.State.Phase)

	result, err = d.Dispatch(dispatcher.Event{Command: streaming.TypeStopMatch, MatchID: "m-1"})
	require.NoError(t, err)
	assert.Equal(t, "m-1", result)
	assert.Zero(t, w.Matches().Active())

	_, err = d.Dispatch(dispatcher.Event{Command: streaming.TypeStopMatch, MatchID: "m-1"})
	assert.ErrorIs(t, err, match.ErrMatchNotFound)
	_, err = d.Dispatch(dispatcher.Event{Command: streaming.TypeStopMatch})
	assert.ErrorIs(t, err, ErrMissingMatch)
	_, err = d.Dispatch(dispatcher.Event{Command: streaming.TypeGetState, MatchID: "m-1"})
	assert.ErrorIs(t, err, match.ErrMatchNotFound)
}
