package match

import (
	"fmt"
	"math"
	"time"

	"github.com/OCAP2/royale/internal/combat"
	"github.com/OCAP2/royale/internal/loot"
	"github.com/OCAP2/royale/internal/player"
	"github.com/OCAP2/royale/internal/vehicle"
	"github.com/OCAP2/royale/internal/world"
	"github.com/OCAP2/royale/internal/zone"
)

// DropConfig controls the dropship and parachute descent.
type DropConfig struct {
	Altitude   float64
	Speed      float64 // dropship ground speed
	FallSpeed  float64
	GlideSpeed float64
}

// Config is the full rule set of a match. It is copied into the match at
// creation and never changes afterwards.
type Config struct {
	TickRate     int
	MaxPlayers   int
	TeamSize     int
	MaxDuration  time.Duration
	KillFeedSize int
	Seed         int64 // zero picks a seed from the clock

	World   world.Config
	Player  player.Config
	Combat  combat.Config
	Vehicle vehicle.Config
	Loot    loot.RegistryConfig
	Drop    DropConfig

	Zone              zone.Schedule
	FinalCirclePhase  int
	InitialZoneRadius float64 // zero covers the whole map

	SeparationRadius float64
}

// DefaultConfig returns a 60 player solo configuration.
func DefaultConfig() Config {
	return Config{
		TickRate:     20,
		MaxPlayers:   60,
		TeamSize:     1,
		MaxDuration:  30 * time.Minute,
		KillFeedSize: 20,

		World:   world.DefaultConfig(),
		Player:  player.DefaultConfig(),
		Combat:  combat.DefaultConfig(),
		Vehicle: vehicle.DefaultConfig(),
		Loot: loot.RegistryConfig{
			Despawn:         5 * time.Minute,
			RespawnCooldown: 90 * time.Second,
		},
		Drop: DropConfig{
			Altitude:   2000,
			Speed:      1000,
			FallSpeed:  250,
			GlideSpeed: 400,
		},

		Zone:             zone.DefaultSchedule(),
		FinalCirclePhase: 4,

		SeparationRadius: 40,
	}
}

// TickInterval is the fixed simulation step.
func (c Config) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return 50 * time.Millisecond
	}
	return time.Second / time.Duration(c.TickRate)
}

func (c Config) zoneRadius() float64 {
	if c.InitialZoneRadius > 0 {
		return c.InitialZoneRadius
	}
	return math.Hypot(c.World.MapSize, c.World.MapSize) / 2
}

// Validate reports configuration that cannot run a match.
func (c Config) Validate() error {
	if c.MaxPlayers <= 0 {
		return fmt.Errorf("max players must be positive, got %d", c.MaxPlayers)
	}
	if c.TeamSize <= 0 {
		return fmt.Errorf("team size must be positive, got %d", c.TeamSize)
	}
	if c.World.MapSize <= 0 {
		return fmt.Errorf("map size must be positive, got %v", c.World.MapSize)
	}
	if err := c.Zone.Validate(); err != nil {
		return fmt.Errorf("invalid zone schedule: %w", err)
	}
	return nil
}
