package match

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/royale/internal/match"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics records tick timing, emitted events and rejected inputs. It is a
// RejectionSink so it can be handed straight to a Match.
type Metrics struct {
	tickDuration metric.Float64Histogram
	events       metric.Int64Counter
	rejected     metric.Int64Counter
}

// NewMetrics creates the instruments on the global OTel meter (no-op if not configured).
func NewMetrics() (*Metrics, error) {
	m := meter()
	mt := &Metrics{}

	var err error
	mt.tickDuration, err = m.Float64Histogram(
		"match.tick.duration",
		metric.WithDescription("Wall time spent computing one tick"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}

	mt.events, err = m.Int64Counter(
		"match.events.emitted",
		metric.WithDescription("Total events produced by ticks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events counter: %w", err)
	}

	mt.rejected, err = m.Int64Counter(
		"match.inputs.rejected",
		metric.WithDescription("Total inputs refused at submission"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}
	return mt, nil
}

func (mt *Metrics) recordTick(matchID string, took time.Duration, events int) {
	if mt == nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("match", matchID))
	mt.tickDuration.Record(ctx, float64(took.Microseconds())/1000, attrs)
	if events > 0 {
		mt.events.Add(ctx, int64(events), attrs)
	}
}

func (mt *Metrics) RecordRejection(matchID, _ string, reason RejectReason, _ uint64) {
	if mt == nil {
		return
	}
	mt.rejected.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("match", matchID),
		attribute.String("reason", string(reason)),
	))
}

// registerActiveGauge observes the number of running matches.
func registerActiveGauge(count func() int) error {
	m := meter()
	gauge, err := m.Int64ObservableGauge(
		"matches.active",
		metric.WithDescription("Current number of running matches"),
	)
	if err != nil {
		return fmt.Errorf("creating active matches gauge: %w", err)
	}
	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(gauge, int64(count()))
			return nil
		},
		gauge,
	)
	if err != nil {
		return fmt.Errorf("registering active matches callback: %w", err)
	}
	return nil
}

// rejectionFanout forwards a rejection to several sinks.
type rejectionFanout []RejectionSink

func (f rejectionFanout) RecordRejection(matchID, playerID string, reason RejectReason, seq uint64) {
	for _, s := range f {
		if s != nil {
			s.RecordRejection(matchID, playerID, reason, seq)
		}
	}
}
