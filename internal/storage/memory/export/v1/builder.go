package v1

import (
	"math"
	"sort"

	"github.com/OCAP2/royale/pkg/core"
)

// MatchData contains all the data needed to build an export
type MatchData struct {
	ServerVersion string
	Info          core.MatchInfo
	Result        core.MatchResult
	EndTick       uint64
	Events        []core.Event
	Kills         []core.KillFeedEntry
}

// Build creates an Export from the recorded match.
func Build(data *MatchData) Export {
	export := Export{
		FormatVersion: FormatVersion,
		ServerVersion: data.ServerVersion,
		MatchID:       data.Info.ID,
		StartedAt:     data.Info.StartedAt,
		EndedAt:       data.Result.EndedAt,
		Seed:          data.Info.Seed,
		TeamSize:      data.Info.TeamSize,
		MapSize:       data.Info.MapSize,
		EndTick:       data.EndTick,
		DropPath:      make([][]float64, 0, len(data.Info.DropPath)),
		Teams:         buildTeams(data.Info.Roster),
		EndReason:     string(data.Result.Reason),
		DurationMs:    data.Result.Duration.Milliseconds(),
		Players:       make([]Player, 0, len(data.Result.Players)),
		KillFeed:      make([][]any, 0, len(data.Kills)),
		Events:        make([][]any, 0, len(data.Events)),
	}

	for _, p := range data.Info.DropPath {
		export.DropPath = append(export.DropPath, []float64{round2(p.X), round2(p.Y), round2(p.Z)})
	}

	if w := data.Result.Winner; w != nil {
		export.Winner = &Team{ID: w.TeamID, Players: append([]string{}, w.PlayerIDs...)}
	}

	for _, p := range data.Result.Players {
		export.Players = append(export.Players, Player{
			ID:             p.PlayerID,
			Team:           p.TeamID,
			Placement:      p.Placement,
			Kills:          p.Stats.Kills,
			Knockdowns:     p.Stats.Knockdowns,
			Revives:        p.Stats.Revives,
			ShotsFired:     p.Stats.ShotsFired,
			Headshots:      p.Stats.Headshots,
			DamageDealt:    round2(p.Stats.DamageDealt),
			DamageTaken:    round2(p.Stats.DamageTaken),
			EliminatedAtMs: p.EliminatedAt.Milliseconds(),
		})
	}
	sort.SliceStable(export.Players, func(i, j int) bool {
		return export.Players[i].Placement < export.Players[j].Placement
	})

	for _, k := range data.Kills {
		export.KillFeed = append(export.KillFeed, []any{
			k.GameTime.Milliseconds(),
			k.VictimID,
			[]any{k.KillerID, k.Weapon}, // [causedBy, weapon]
			string(k.Source),
			round2(k.Distance),
			k.Headshot,
		})
	}

	for _, ev := range data.Events {
		export.Events = append(export.Events, []any{ev.Tick, string(ev.Type), ev.Data})
	}

	return export
}

// buildTeams groups the roster by team, keeping first-seen order.
func buildTeams(roster []core.RosterEntry) []Team {
	teams := make([]Team, 0)
	index := make(map[string]int)
	for _, r := range roster {
		i, ok := index[r.TeamID]
		if !ok {
			i = len(teams)
			index[r.TeamID] = i
			teams = append(teams, Team{ID: r.TeamID})
		}
		teams[i].Players = append(teams[i].Players, r.PlayerID)
	}
	return teams
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
