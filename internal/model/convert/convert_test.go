package convert

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/OCAP2/royale/internal/geo"
	"github.com/OCAP2/royale/internal/model"
	"github.com/OCAP2/royale/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreToMatch(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	info := core.MatchInfo{
		ID:        "m-1",
		StartedAt: started,
		Seed:      42,
		TeamSize:  2,
		MapSize:   4000,
		Roster:    []core.RosterEntry{{PlayerID: "a", TeamID: "team-1"}, {PlayerID: "b", TeamID: "team-1"}},
		DropPath:  []core.Vec3{core.V(0, 100, 500), core.V(4000, 3900, 500)},
	}

	m := CoreToMatch(info)
	assert.Equal(t, "m-1", m.MatchID)
	assert.Equal(t, started, m.StartedAt)
	assert.Equal(t, int64(42), m.Seed)
	assert.Equal(t, uint8(2), m.TeamSize)
	assert.Equal(t, float32(4000), m.MapSize)
	assert.Equal(t, uint16(2), m.PlayerCount)
	assert.JSONEq(t, `[]`, string(m.Winners))

	path := geo.PathFromLineString(m.DropPath)
	require.Len(t, path, 2)
	assert.Equal(t, core.V(4000, 3900, 0), path[1])
}

func TestCoreToMatch_NoDropPathInLobby(t *testing.T) {
	m := CoreToMatch(core.MatchInfo{ID: "lobby"})
	assert.True(t, m.DropPath.IsEmpty())
}

func TestApplyResult(t *testing.T) {
	ended := time.Date(2026, 3, 1, 12, 20, 0, 0, time.UTC)
	var m model.Match

	ApplyResult(&m, core.MatchResult{
		Winner:   &core.Winner{TeamID: "team-3", PlayerIDs: []string{"e", "f"}},
		Reason:   core.EndLastTeamStanding,
		Duration: 20 * time.Minute,
		EndedAt:  ended,
	})
	assert.True(t, m.EndedAt.Valid)
	assert.Equal(t, ended, m.EndedAt.Time)
	assert.Equal(t, "team-3", m.WinnerTeam)
	assert.JSONEq(t, `["e","f"]`, string(m.Winners))
	assert.Equal(t, "last_team_standing", m.EndReason)
	assert.Equal(t, int64(1_200_000), m.DurationMs)

	ApplyResult(&m, core.MatchResult{Reason: core.EndTimeout, EndedAt: ended})
	assert.Empty(t, m.WinnerTeam)
	assert.JSONEq(t, `[]`, string(m.Winners))
}

func TestCoreToMatchPlayer(t *testing.T) {
	p := CoreToMatchPlayer(7, core.PlayerResult{
		PlayerID:     "a",
		TeamID:       "team-1",
		Placement:    3,
		Stats:        core.PlayerStats{Kills: 2, Knockdowns: 3, ShotsFired: 40, Headshots: 1, DamageDealt: 180.5, DamageTaken: 100},
		EliminatedAt: 95 * time.Second,
	})
	assert.Equal(t, uint(7), p.MatchID)
	assert.Equal(t, "a", p.Player)
	assert.Equal(t, uint16(3), p.Placement)
	assert.Equal(t, uint16(2), p.Kills)
	assert.Equal(t, uint32(40), p.ShotsFired)
	assert.Equal(t, float32(180.5), p.DamageDealt)
	assert.Equal(t, int64(95_000), p.EliminatedAtMs)
}

func TestKillEvent_RoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
	entry := core.KillFeedEntry{
		KillerID: "b",
		Source:   core.SourceWeapon,
		VictimID: "a",
		Weapon:   "AR-15",
		Headshot: true,
		Distance: 87.5,
		Position: core.V(1200, 800, 3),
		GameTime: 4 * time.Minute,
	}
	ev := core.Event{Type: core.EventPlayerEliminated, Tick: 4800, GameTime: entry.GameTime}

	k := CoreToKillEvent(3, at, ev, core.PlayerEliminated{PlayerID: "a", Placement: 9, Kill: entry})
	assert.Equal(t, uint(3), k.MatchID)
	assert.Equal(t, uint(4800), k.Tick)
	assert.True(t, k.Killer.Valid)
	assert.Equal(t, uint16(9), k.Placement)
	assert.Equal(t, float32(3), k.Elevation)

	assert.Equal(t, entry, KillEventToCore(k))
}

func TestCoreToKillEvent_Unattributed(t *testing.T) {
	k := CoreToKillEvent(1, time.Now(), core.Event{}, core.PlayerEliminated{
		PlayerID: "a",
		Kill:     core.KillFeedEntry{VictimID: "a", Source: core.SourceZone},
	})
	assert.False(t, k.Killer.Valid)
	assert.Equal(t, "zone", k.Source)
	assert.Empty(t, KillEventToCore(k).KillerID)
}

func TestCoreToMatchEvent(t *testing.T) {
	ev := core.Event{
		Type:     core.EventLootPickedUp,
		Tick:     12,
		GameTime: 600 * time.Millisecond,
		Data:     core.LootPickedUp{PlayerID: "a", ItemID: "loot-4", Category: "weapon", Name: "Shotgun", Rarity: "rare"},
	}
	me, err := CoreToMatchEvent(5, time.Now(), ev)
	require.NoError(t, err)
	assert.Equal(t, "loot_picked_up", me.Type)
	assert.Equal(t, int64(600), me.GameMs)

	var data map[string]any
	require.NoError(t, json.Unmarshal(me.Data, &data))
	assert.Equal(t, "loot-4", data["itemId"])

	empty, err := CoreToMatchEvent(5, time.Now(), core.Event{Type: core.EventGameTick})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(empty.Data))

	_, err = CoreToMatchEvent(5, time.Now(), core.Event{Type: "bad", Data: make(chan int)})
	assert.Error(t, err)
}

func TestMatchToResult(t *testing.T) {
	var m model.Match
	m.MatchID = "m-1"
	ApplyResult(&m, core.MatchResult{
		Winner:   &core.Winner{TeamID: "team-2", PlayerIDs: []string{"c"}},
		Reason:   core.EndLastTeamStanding,
		Duration: time.Minute,
		EndedAt:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	players := []model.MatchPlayer{
		CoreToMatchPlayer(1, core.PlayerResult{PlayerID: "c", TeamID: "team-2", Placement: 1, Stats: core.PlayerStats{Kills: 1, Placement: 1}}),
		CoreToMatchPlayer(1, core.PlayerResult{PlayerID: "a", TeamID: "team-1", Placement: 2, Stats: core.PlayerStats{Placement: 2}, EliminatedAt: 50 * time.Second}),
	}

	res := MatchToResult(m, players)
	assert.Equal(t, "m-1", res.MatchID)
	require.NotNil(t, res.Winner)
	assert.Equal(t, []string{"c"}, res.Winner.PlayerIDs)
	assert.Equal(t, time.Minute, res.Duration)
	require.Len(t, res.Players, 2)
	assert.Equal(t, 1, res.Players[0].Stats.Kills)
	assert.Equal(t, 50*time.Second, res.Players[1].EliminatedAt)

	assert.Nil(t, MatchToResult(model.Match{MatchID: "draw", EndReason: "timeout"}, nil).Winner)
}
