package match

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/royale/pkg/core"
)

var (
	ErrRunnerStarted = errors.New("runner already started")
	ErrRunnerStopped = errors.New("runner stopped")
)

// EventSink receives each tick's events once the tick has completed. It is
// called from the runner goroutine.
type EventSink interface {
	Publish(matchID string, events []core.Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(matchID string, events []core.Event)

func (f EventSinkFunc) Publish(matchID string, events []core.Event) {
	f(matchID, events)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// OnEnded is called from the runner goroutine after the final tick. The
// hook must not call Stop on the same runner.
func OnEnded(fn func(*Match)) RunnerOption {
	return func(r *Runner) {
		r.onEnded = fn
	}
}

func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

func WithMetrics(mt *Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = mt
	}
}

// Runner owns the tick schedule of one match.
type Runner struct {
	match   *Match
	sink    EventSink
	log     *slog.Logger
	metrics *Metrics
	onEnded func(*Match)

	snapshot atomic.Pointer[core.GameState]

	mu       sync.Mutex
	started  bool
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewRunner(m *Match, sink EventSink, opts ...RunnerOption) *Runner {
	r := &Runner{
		match: m,
		sink:  sink,
		log:   slog.New(slog.DiscardHandler),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With("match", m.ID())
	return r
}

func (r *Runner) Match() *Match {
	return r.match
}

// Run starts the match and its tick loop in a new goroutine.
func (r *Runner) Run() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrRunnerStarted
	}
	select {
	case <-r.stop:
		return ErrRunnerStopped
	default:
	}
	if err := r.match.Start(); err != nil {
		return err
	}
	state := r.match.GameState()
	r.snapshot.Store(&state)
	r.started = true

	go r.loop(r.match.TickInterval())
	return nil
}

func (r *Runner) loop(interval time.Duration) {
	defer close(r.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			r.log.Info("Runner stopped", "ended", r.match.Ended())
			return
		case <-ticker.C:
			if !r.step() {
				continue
			}
			if r.onEnded != nil {
				r.onEnded(r.match)
			}
			return
		}
	}
}

// step runs one tick, publishes its events and reports whether the match ended.
func (r *Runner) step() bool {
	start := time.Now()
	events := r.match.Tick()
	r.metrics.recordTick(r.match.ID(), time.Since(start), len(events))

	state := r.match.GameState()
	r.snapshot.Store(&state)

	if len(events) > 0 && r.sink != nil {
		r.sink.Publish(r.match.ID(), events)
	}
	return r.match.Ended()
}

// State returns the snapshot taken after the latest tick.
func (r *Runner) State() core.GameState {
	if s := r.snapshot.Load(); s != nil {
		return *s
	}
	return r.match.GameState()
}

// Done is closed once the tick loop has exited.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Stop halts the tick schedule and waits for the loop to exit, so no tick
// runs after it returns.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })

	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if started {
		<-r.done
	}
}
