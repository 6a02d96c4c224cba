package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"ServerInfo", &ServerInfo{}, "server_infos"},
		{"ServerPerformance", &ServerPerformance{}, "server_performances"},
		{"Match", &Match{}, "matches"},
		{"MatchPlayer", &MatchPlayer{}, "match_players"},
		{"KillEvent", &KillEvent{}, "kill_events"},
		{"MatchEvent", &MatchEvent{}, "match_events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}
