package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/OCAP2/royale/internal/config"
	"github.com/OCAP2/royale/internal/model"
	"github.com/OCAP2/royale/pkg/core"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

const (
	BucketMatchData         = "match_data"
	BucketServerPerformance = "server_performance"
	BucketAntiCheat         = "anti_cheat"
)

// DefaultBucketNames are the buckets created on connect.
var DefaultBucketNames = []string{
	BucketMatchData,
	BucketServerPerformance,
	BucketAntiCheat,
}

var ErrDisabled = errors.New("influx is disabled")

// Manager handles InfluxDB connections and writes. When the server is
// unreachable points go to a gzipped line protocol backup file instead.
type Manager struct {
	Client       influxdb2.Client
	Writers      map[string]influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	BucketNames  []string
	Logger       zerolog.Logger
	BackupPath   string

	cfg        config.InfluxConfig
	backupFile *os.File
	mu         sync.Mutex
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, cfg config.InfluxConfig, backupPath string) *Manager {
	return &Manager{
		Writers:     make(map[string]influxdb2_api.WriteAPI),
		BucketNames: DefaultBucketNames,
		Logger:      log,
		BackupPath:  backupPath,
		cfg:         cfg,
	}
}

// ServerURL renders the client address.
func ServerURL(cfg config.InfluxConfig) string {
	return fmt.Sprintf("%s://%s:%s", cfg.Protocol, cfg.Host, cfg.Port)
}

// Connect establishes a connection to InfluxDB.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	m.Client = influxdb2.NewClientWithOptions(
		ServerURL(m.cfg),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.IsValid = false
		m.Logger.Warn().Err(err).Str("backupPath", m.BackupPath).
			Msg("InfluxDB client failed to initialize, writing to backup file")
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBuckets(ctx); err != nil {
		return err
	}
	m.CreateWriters()
	m.IsValid = true
	m.Logger.Info().Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.BackupWriter != nil {
		return nil
	}
	file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBuckets(ctx context.Context) error {
	orgName := m.cfg.Org

	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		influxOrg, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	// buckets keep 90 days
	for _, bucket := range m.BucketNames {
		if _, err = m.Client.BucketsAPI().FindBucketByName(ctx, bucket); err == nil {
			continue
		}
		m.Logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 90,
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", bucket).Msg("Error creating bucket")
			return err
		}
	}
	return nil
}

// CreateWriters creates write APIs for all configured buckets.
func (m *Manager) CreateWriters() {
	for _, bucket := range m.BucketNames {
		w := m.Client.WriteAPI(m.cfg.Org, bucket)
		m.Writers[bucket] = w

		go func(bucketName string, errorsCh <-chan error) {
			for writeErr := range errorsCh {
				m.Logger.Error().Err(writeErr).Str("bucket", bucketName).
					Msg("Error sending data to InfluxDB")
			}
		}(bucket, w.Errors())
	}
	m.Logger.Debug().Int("buckets", len(m.BucketNames)).Msg("InfluxDB writers initialized")
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(bucket string, point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsValid {
		w, ok := m.Writers[bucket]
		if !ok {
			return fmt.Errorf("influxDB bucket '%s' not registered", bucket)
		}
		w.WritePoint(point)
		return nil
	}

	if m.BackupWriter == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := m.BackupWriter.Write([]byte(line)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes pending points and releases the client or backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range m.Writers {
		w.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}
	if m.BackupWriter != nil {
		err := m.BackupWriter.Close()
		m.BackupWriter = nil
		if cerr := m.backupFile.Close(); err == nil {
			err = cerr
		}
		return err
	}
	return nil
}

// PointFromEvent maps match events worth charting to a point in the
// match_data bucket. Other events return nil.
func PointFromEvent(matchID string, ev core.Event, at time.Time) *influxdb2_write.Point {
	switch e := ev.Data.(type) {
	case core.GameTick:
		return influxdb2.NewPoint("match_tick",
			map[string]string{"match_id": matchID},
			map[string]any{"tick": int64(e.Tick), "players_alive": e.PlayersAlive},
			at)
	case core.PlayerEliminated:
		tags := map[string]string{
			"match_id": matchID,
			"source":   string(e.Kill.Source),
			"headshot": strconv.FormatBool(e.Kill.Headshot),
		}
		if e.Kill.Weapon != "" {
			tags["weapon"] = e.Kill.Weapon
		}
		return influxdb2.NewPoint("elimination", tags,
			map[string]any{"distance": e.Kill.Distance, "placement": e.Placement},
			at)
	case core.ZoneShrink:
		return influxdb2.NewPoint("zone_phase",
			map[string]string{"match_id": matchID},
			map[string]any{"phase": e.Phase, "radius": e.Radius, "target_radius": e.TargetRadius},
			at)
	case core.MatchEnded:
		winner := ""
		if e.Winner != nil {
			winner = e.Winner.TeamID
		}
		return influxdb2.NewPoint("match_result",
			map[string]string{"match_id": matchID, "reason": string(e.Reason)},
			map[string]any{"duration_ms": e.Duration.Milliseconds(), "players": len(e.Stats), "winner_team": winner},
			at)
	}
	return nil
}

// RejectionPoint records one refused input for the anti_cheat bucket.
func RejectionPoint(matchID, playerID, reason string, seq uint64, at time.Time) *influxdb2_write.Point {
	return influxdb2.NewPoint("input_rejected",
		map[string]string{"match_id": matchID, "player_id": playerID, "reason": reason},
		map[string]any{"seq": int64(seq)},
		at)
}

// PerformancePoint converts a monitor sample.
func PerformancePoint(p model.ServerPerformance) *influxdb2_write.Point {
	return influxdb2.NewPoint("server_performance",
		map[string]string{"session": p.Session},
		map[string]any{
			"active_matches":         int(p.ActiveMatches),
			"players_alive":          int(p.PlayersAlive),
			"goroutines":             int(p.Goroutines),
			"heap_alloc_mb":          float64(p.HeapAllocMB),
			"queue_kill_events":      int(p.WriteQueueLengths.KillEvents),
			"queue_match_events":     int(p.WriteQueueLengths.MatchEvents),
			"last_write_duration_ms": float64(p.LastWriteDurationMs),
		},
		p.Time)
}
