package worker

import (
	"errors"
	"fmt"

	"github.com/OCAP2/royale/internal/dispatcher"
	"github.com/OCAP2/royale/internal/match"
	"github.com/OCAP2/royale/pkg/streaming"
)

var (
	ErrMissingPlayer = errors.New("missing player id")
	ErrMissingMatch  = errors.New("missing match id")
	ErrInputRejected = errors.New("input rejected")
)

// RegisterHandlers registers all gateway commands with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Player inputs - buffered, a single queue keeps each player's order
	d.Register(streaming.TypeInput, m.handleInput, dispatcher.Buffered(10000), dispatcher.Logged())

	// Match lifecycle - sync, the gateway waits for the ack
	d.Register(streaming.TypeCreateMatch, m.handleCreateMatch, dispatcher.Logged())
	d.Register(streaming.TypeStopMatch, m.handleStopMatch, dispatcher.Logged())

	d.Register(streaming.TypeGetState, m.handleGetState)
}

func (m *Manager) handleInput(e dispatcher.Event) (any, error) {
	if e.PlayerID == "" {
		return nil, ErrMissingPlayer
	}
	in, err := m.parser.ParseInput(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input from %s: %w", e.PlayerID, err)
	}
	if !m.matches.SubmitInput(e.MatchID, e.PlayerID, in) {
		return nil, fmt.Errorf("%w: %s seq %d", ErrInputRejected, e.PlayerID, in.Seq)
	}
	return nil, nil
}

func (m *Manager) handleCreateMatch(e dispatcher.Event) (any, error) {
	req, err := m.parser.ParseCreateMatch(e.Payload, e.MatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse create_match: %w", err)
	}

	var opts []match.CreateOption
	if req.Seed != nil {
		opts = append(opts, match.WithSeed(*req.Seed))
	}
	mt, err := m.matches.Create(req.MatchID, req.Players, opts...)
	if err != nil {
		return nil, err
	}
	return mt.Info(), nil
}

func (m *Manager) handleStopMatch(e dispatcher.Event) (any, error) {
	if e.MatchID == "" {
		return nil, ErrMissingMatch
	}
	if err := m.matches.Stop(e.MatchID); err != nil {
		return nil, err
	}
	return e.MatchID, nil
}

func (m *Manager) handleGetState(e dispatcher.Event) (any, error) {
	state, ok := m.matches.State(e.MatchID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", match.ErrMatchNotFound, e.MatchID)
	}
	return streaming.StateMessage{Type: streaming.TypeState, State: state}, nil
}
