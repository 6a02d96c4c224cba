// Package storage defines the match history sinks.
package storage

import (
	"errors"

	"github.com/OCAP2/royale/pkg/core"
)

// ErrUnknownMatch is returned when events or results arrive for a match
// that was never started on the backend.
var ErrUnknownMatch = errors.New("match not started")

// Backend is the interface all storage implementations must satisfy.
// Calls for one match arrive in order: StartMatch, any number of
// RecordEvents, then EndMatch.
type Backend interface {
	Init() error
	Close() error

	StartMatch(info core.MatchInfo) error
	RecordEvents(matchID string, events []core.Event) error
	EndMatch(result core.MatchResult) error
}

// Exporter is an optional interface for backends that produce one file
// per finished match.
type Exporter interface {
	ExportedFiles() []string
}
