package v1

import (
	"testing"
	"time"

	"github.com/OCAP2/royale/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTeams_KeepsRosterOrder(t *testing.T) {
	teams := buildTeams([]core.RosterEntry{
		{PlayerID: "a", TeamID: "team-2"},
		{PlayerID: "b", TeamID: "team-1"},
		{PlayerID: "c", TeamID: "team-2"},
	})
	assert.Equal(t, []Team{
		{ID: "team-2", Players: []string{"a", "c"}},
		{ID: "team-1", Players: []string{"b"}},
	}, teams)
	assert.Empty(t, buildTeams(nil))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, round2(1.23456))
	assert.Equal(t, 2.0, round2(1.999))
}

func TestBuild(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data := &MatchData{
		ServerVersion: "1.2.3",
		Info: core.MatchInfo{
			ID:        "m-1",
			StartedAt: started,
			Seed:      9,
			TeamSize:  1,
			MapSize:   2000,
			Roster:    []core.RosterEntry{{PlayerID: "a", TeamID: "team-1"}, {PlayerID: "b", TeamID: "team-2"}},
			DropPath:  []core.Vec3{core.V(0.123, 10, 500), core.V(2000, 1990.456, 500)},
		},
		Result: core.MatchResult{
			MatchID:  "m-1",
			Winner:   &core.Winner{TeamID: "team-2", PlayerIDs: []string{"b"}},
			Reason:   core.EndLastTeamStanding,
			Duration: 3 * time.Minute,
			EndedAt:  started.Add(3 * time.Minute),
			Players: []core.PlayerResult{
				{PlayerID: "a", TeamID: "team-1", Placement: 2, EliminatedAt: 170 * time.Second},
				{PlayerID: "b", TeamID: "team-2", Placement: 1, Stats: core.PlayerStats{Kills: 1, DamageDealt: 100.004}},
			},
		},
		EndTick: 3600,
		Events: []core.Event{
			{Type: core.EventMatchStarted, Data: core.MatchStarted{MatchID: "m-1", Players: 2, Teams: 2}},
			{Type: core.EventMatchEnded, Tick: 3600},
		},
		Kills: []core.KillFeedEntry{
			{KillerID: "b", Source: core.SourceWeapon, VictimID: "a", Weapon: "Sniper", Headshot: true, Distance: 301.257, GameTime: 170 * time.Second},
		},
	}

	export := Build(data)
	assert.Equal(t, FormatVersion, export.FormatVersion)
	assert.Equal(t, "1.2.3", export.ServerVersion)
	assert.Equal(t, "m-1", export.MatchID)
	assert.Equal(t, uint64(3600), export.EndTick)
	assert.Equal(t, [][]float64{{0.12, 10, 500}, {2000, 1990.46, 500}}, export.DropPath)
	assert.Len(t, export.Teams, 2)
	require.NotNil(t, export.Winner)
	assert.Equal(t, Team{ID: "team-2", Players: []string{"b"}}, *export.Winner)
	assert.Equal(t, "last_team_standing", export.EndReason)
	assert.Equal(t, int64(180_000), export.DurationMs)

	require.Len(t, export.Players, 2)
	assert.Equal(t, "b", export.Players[0].ID, "players sorted by placement")
	assert.Equal(t, 100.0, export.Players[0].DamageDealt)
	assert.Equal(t, int64(170_000), export.Players[1].EliminatedAtMs)

	require.Len(t, export.KillFeed, 1)
	assert.Equal(t, []any{int64(170_000), "a", []any{"b", "Sniper"}, "weapon", 301.26, true}, export.KillFeed[0])

	require.Len(t, export.Events, 2)
	assert.Equal(t, uint64(0), export.Events[0][0])
	assert.Equal(t, "match_started", export.Events[0][1])
	assert.Nil(t, export.Events[1][2])
}

func TestBuild_Draw(t *testing.T) {
	export := Build(&MatchData{Result: core.MatchResult{Reason: core.EndTimeout}})
	assert.Nil(t, export.Winner)
	assert.NotNil(t, export.KillFeed)
	assert.NotNil(t, export.Events)
	assert.NotNil(t, export.DropPath)
}
