package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/OCAP2/royale/internal/influx"
	"github.com/OCAP2/royale/internal/model"
	"github.com/OCAP2/royale/pkg/core"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MatchSource reports the running matches.
type MatchSource interface {
	IDs() []string
	State(id string) (core.GameState, bool)
}

// QueueReporter reports the storage writer backlog.
type QueueReporter interface {
	WriteQueueLengths() model.WriteQueueLengths
	LastWriteDuration() time.Duration
}

// PerformanceWriter persists monitor samples.
type PerformanceWriter interface {
	WritePerformance(p model.ServerPerformance) error
}

// PointWriter ships points to InfluxDB.
type PointWriter interface {
	WritePoint(bucket string, point *influxdb2_write.Point) error
}

// Dependencies holds all dependencies for the monitor service. Only
// Matches is required.
type Dependencies struct {
	Matches    MatchSource
	Queues     QueueReporter
	Store      PerformanceWriter
	Influx     PointWriter
	Logger     *slog.Logger
	Session    string
	StatusPath string
	Interval   time.Duration
}

// MatchStatus is one line of the status file.
type MatchStatus struct {
	ID           string     `json:"id"`
	Phase        core.Phase `json:"phase"`
	Tick         uint64     `json:"tick"`
	PlayersAlive int        `json:"playersAlive"`
	TeamsAlive   int        `json:"teamsAlive"`
	ZonePhase    int        `json:"zonePhase"`
}

// Status is what the status file holds.
type Status struct {
	Time              time.Time               `json:"time"`
	Session           string                  `json:"session"`
	Matches           []MatchStatus           `json:"matches"`
	WriteQueueLengths model.WriteQueueLengths `json:"writeQueueLengths"`
	LastWriteMs       float32                 `json:"lastWriteMs"`
	Goroutines        int                     `json:"goroutines"`
	HeapAllocMB       float32                 `json:"heapAllocMB"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = 15 * time.Second
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus collects the current status and the matching
// performance row.
func (s *Service) GetProgramStatus() (Status, model.ServerPerformance) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status := Status{
		Time:        time.Now(),
		Session:     s.deps.Session,
		Matches:     make([]MatchStatus, 0),
		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: float32(mem.HeapAlloc) / (1 << 20),
	}
	if s.deps.Queues != nil {
		status.WriteQueueLengths = s.deps.Queues.WriteQueueLengths()
		status.LastWriteMs = float32(s.deps.Queues.LastWriteDuration().Microseconds()) / 1000
	}

	alive := 0
	for _, id := range s.deps.Matches.IDs() {
		st, ok := s.deps.Matches.State(id)
		if !ok {
			continue
		}
		alive += st.PlayersAlive
		status.Matches = append(status.Matches, MatchStatus{
			ID:           id,
			Phase:        st.Phase,
			Tick:         st.Tick,
			PlayersAlive: st.PlayersAlive,
			TeamsAlive:   st.TeamsAlive,
			ZonePhase:    st.Zone.Phase,
		})
	}

	perf := model.ServerPerformance{
		Time:                status.Time,
		Session:             status.Session,
		ActiveMatches:       uint16(len(status.Matches)),
		PlayersAlive:        uint16(alive),
		Goroutines:          uint32(status.Goroutines),
		HeapAllocMB:         status.HeapAllocMB,
		WriteQueueLengths:   status.WriteQueueLengths,
		LastWriteDurationMs: status.LastWriteMs,
	}
	return status, perf
}

// Sample takes one status sample and sends it everywhere configured.
func (s *Service) Sample() {
	logger := s.deps.Logger
	status, perf := s.GetProgramStatus()

	if s.deps.StatusPath != "" {
		if err := writeStatus(s.deps.StatusPath, status); err != nil {
			logger.Error("Error writing status file", "error", err)
		}
	}

	logger.Debug("Status sample",
		"activeMatches", perf.ActiveMatches,
		"playersAlive", perf.PlayersAlive,
		"goroutines", perf.Goroutines,
		"heapAllocMB", perf.HeapAllocMB)

	if s.deps.Store != nil {
		if err := s.deps.Store.WritePerformance(perf); err != nil {
			logger.Error("Error writing performance sample", "error", err)
		}
	}
	if s.deps.Influx != nil {
		if err := s.deps.Influx.WritePoint(influx.BucketServerPerformance, influx.PerformancePoint(perf)); err != nil {
			logger.Error("Error writing performance point", "error", err)
		}
	}
}

// writeStatus replaces the status file atomically.
func writeStatus(path string, status Status) error {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		s.deps.Logger.Debug("Starting status monitor", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.Sample()
			}
		}
	}(s.stopChan, s.done)

	return nil
}

// Stop stops the status monitor and waits for the current sample.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
