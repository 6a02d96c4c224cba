package convert

import (
	"encoding/json"
	"time"

	"github.com/OCAP2/royale/internal/geo"
	"github.com/OCAP2/royale/internal/model"
	"github.com/OCAP2/royale/pkg/core"
)

// KillEventToCore rebuilds a kill feed entry from storage.
func KillEventToCore(k model.KillEvent) core.KillFeedEntry {
	pos, _ := geo.FromPoint(k.Position)
	pos.Z = float64(k.Elevation)
	return core.KillFeedEntry{
		KillerID: k.Killer.String,
		Source:   core.DamageSource(k.Source),
		VictimID: k.Victim,
		Weapon:   k.Weapon,
		Headshot: k.Headshot,
		Distance: float64(k.Distance),
		Position: pos,
		GameTime: time.Duration(k.GameMs) * time.Millisecond,
	}
}

// MatchPlayerToCore rebuilds a final player record.
func MatchPlayerToCore(p model.MatchPlayer) core.PlayerResult {
	return core.PlayerResult{
		PlayerID:  p.Player,
		TeamID:    p.TeamID,
		Placement: int(p.Placement),
		Stats: core.PlayerStats{
			Kills:       int(p.Kills),
			Knockdowns:  int(p.Knockdowns),
			Revives:     int(p.Revives),
			ShotsFired:  int(p.ShotsFired),
			Headshots:   int(p.Headshots),
			DamageDealt: float64(p.DamageDealt),
			DamageTaken: float64(p.DamageTaken),
			Placement:   int(p.Placement),
		},
		EliminatedAt: time.Duration(p.EliminatedAtMs) * time.Millisecond,
	}
}

// MatchToResult rebuilds a match outcome. Winner is nil for draws.
func MatchToResult(m model.Match, players []model.MatchPlayer) core.MatchResult {
	res := core.MatchResult{
		MatchID:  m.MatchID,
		Reason:   core.EndReason(m.EndReason),
		Duration: time.Duration(m.DurationMs) * time.Millisecond,
		Players:  make([]core.PlayerResult, 0, len(players)),
	}
	if m.EndedAt.Valid {
		res.EndedAt = m.EndedAt.Time
	}
	if m.WinnerTeam != "" {
		w := &core.Winner{TeamID: m.WinnerTeam}
		_ = json.Unmarshal(m.Winners, &w.PlayerIDs)
		res.Winner = w
	}
	for _, p := range players {
		res.Players = append(res.Players, MatchPlayerToCore(p))
	}
	return res
}
