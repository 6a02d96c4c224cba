// Package zone runs the shrinking safe circle.
package zone

import (
	"errors"
	"fmt"
	"time"
)

// Phase is one step of the shrink schedule.
type Phase struct {
	Wait            time.Duration `mapstructure:"wait"`
	Shrink          time.Duration `mapstructure:"shrink"`
	DamagePerSecond float64       `mapstructure:"damagePerSecond"`
	FinalRadius     float64       `mapstructure:"finalRadius"`
}

// Schedule is the ordered, read-only list of phases.
type Schedule []Phase

var ErrEmptySchedule = errors.New("zone schedule has no phases")

// DefaultSchedule is tuned for a 16 km map.
func DefaultSchedule() Schedule {
	return Schedule{
		{Wait: 120 * time.Second, Shrink: 90 * time.Second, DamagePerSecond: 1, FinalRadius: 6000},
		{Wait: 90 * time.Second, Shrink: 60 * time.Second, DamagePerSecond: 2, FinalRadius: 3500},
		{Wait: 60 * time.Second, Shrink: 60 * time.Second, DamagePerSecond: 4, FinalRadius: 2000},
		{Wait: 60 * time.Second, Shrink: 45 * time.Second, DamagePerSecond: 6, FinalRadius: 1000},
		{Wait: 45 * time.Second, Shrink: 30 * time.Second, DamagePerSecond: 8, FinalRadius: 400},
		{Wait: 30 * time.Second, Shrink: 30 * time.Second, DamagePerSecond: 10, FinalRadius: 100},
	}
}

// Validate checks the schedule can be run.
func (s Schedule) Validate() error {
	if len(s) == 0 {
		return ErrEmptySchedule
	}
	for i, p := range s {
		if p.Wait < 0 || p.Shrink < 0 || p.DamagePerSecond < 0 || p.FinalRadius < 0 {
			return fmt.Errorf("zone phase %d: negative value", i)
		}
	}
	return nil
}

// Duration is the total time from zone start to the final circle closing.
func (s Schedule) Duration() time.Duration {
	var total time.Duration
	for _, p := range s {
		total += p.Wait + p.Shrink
	}
	return total
}
