// Package convert maps between engine types in pkg/core and the GORM models.
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/OCAP2/royale/internal/geo"
	"github.com/OCAP2/royale/internal/model"
	"github.com/OCAP2/royale/pkg/core"
	"gorm.io/datatypes"
)

// CoreToMatch converts the start-of-match description. The drop path is
// left empty when the match never reached the drop phase.
func CoreToMatch(info core.MatchInfo) model.Match {
	m := model.Match{
		MatchID:     info.ID,
		StartedAt:   info.StartedAt,
		Seed:        info.Seed,
		TeamSize:    uint8(info.TeamSize),
		MapSize:     float32(info.MapSize),
		PlayerCount: uint16(len(info.Roster)),
		Winners:     datatypes.JSON("[]"),
	}
	if ls, err := geo.PathLineString(info.DropPath); err == nil {
		m.DropPath = ls
	}
	return m
}

// ApplyResult copies the end-of-match outcome onto a stored match.
func ApplyResult(m *model.Match, res core.MatchResult) {
	m.EndedAt = sql.NullTime{Time: res.EndedAt, Valid: !res.EndedAt.IsZero()}
	m.EndReason = string(res.Reason)
	m.DurationMs = res.Duration.Milliseconds()
	m.WinnerTeam = ""
	m.Winners = datatypes.JSON("[]")
	if res.Winner != nil {
		m.WinnerTeam = res.Winner.TeamID
		m.Winners = stringsToJSON(res.Winner.PlayerIDs)
	}
}

// CoreToMatchPlayer converts a final player record for the stored match id.
func CoreToMatchPlayer(matchID uint, r core.PlayerResult) model.MatchPlayer {
	return model.MatchPlayer{
		MatchID:        matchID,
		Player:         r.PlayerID,
		TeamID:         r.TeamID,
		Placement:      uint16(r.Placement),
		Kills:          uint16(r.Stats.Kills),
		Knockdowns:     uint16(r.Stats.Knockdowns),
		Revives:        uint16(r.Stats.Revives),
		ShotsFired:     uint32(r.Stats.ShotsFired),
		Headshots:      uint16(r.Stats.Headshots),
		DamageDealt:    float32(r.Stats.DamageDealt),
		DamageTaken:    float32(r.Stats.DamageTaken),
		EliminatedAtMs: r.EliminatedAt.Milliseconds(),
	}
}

// CoreToKillEvent converts a player_eliminated event.
func CoreToKillEvent(matchID uint, at time.Time, ev core.Event, e core.PlayerEliminated) model.KillEvent {
	k := e.Kill
	// ToPoint falls back to an empty point, so a bad position never drops
	// the kill row.
	pos, _ := geo.ToPoint(k.Position.Flat())
	return model.KillEvent{
		Time:      at,
		MatchID:   matchID,
		Tick:      uint(ev.Tick),
		Victim:    k.VictimID,
		Killer:    sql.NullString{String: k.KillerID, Valid: k.KillerID != ""},
		Source:    string(k.Source),
		Weapon:    k.Weapon,
		Headshot:  k.Headshot,
		Distance:  float32(k.Distance),
		Placement: uint16(e.Placement),
		GameMs:    k.GameTime.Milliseconds(),
		Position:  pos,
		Elevation: float32(k.Position.Z),
	}
}

// CoreToMatchEvent stores any event as JSON.
func CoreToMatchEvent(matchID uint, at time.Time, ev core.Event) (model.MatchEvent, error) {
	data := datatypes.JSON("{}")
	if ev.Data != nil {
		raw, err := json.Marshal(ev.Data)
		if err != nil {
			return model.MatchEvent{}, fmt.Errorf("encoding %s data: %w", ev.Type, err)
		}
		data = datatypes.JSON(raw)
	}
	return model.MatchEvent{
		Time:    at,
		MatchID: matchID,
		Tick:    uint(ev.Tick),
		GameMs:  ev.GameTime.Milliseconds(),
		Type:    string(ev.Type),
		Data:    data,
	}, nil
}

func stringsToJSON(items []string) datatypes.JSON {
	if len(items) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(items)
	return datatypes.JSON(data)
}
