// Package parser turns gateway payloads into engine inputs. It does no
// match-state validation; that happens inside the match on its next tick.
package parser

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCAP2/royale/pkg/core"
	"github.com/OCAP2/royale/pkg/streaming"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrMalformed     = errors.New("malformed payload")
	ErrUnknownAction = errors.New("unknown action kind")
	ErrInvalidAction = errors.New("invalid action")
	ErrInvalidRoster = errors.New("invalid roster")
)

// Parser provides pure []byte -> core struct conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger     *slog.Logger
	maxPlayers int
}

// NewParser creates a parser. maxPlayers bounds create_match rosters; zero
// means unbounded.
func NewParser(logger *slog.Logger, maxPlayers int) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger, maxPlayers: maxPlayers}
}

func decode(data []byte, v any, what string) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty %s", ErrMalformed, what)
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, what, err)
	}
	return nil
}

// ParseInput decodes an input payload into a sequenced action. Structurally
// invalid actions are refused here so they never reach a match.
func (p *Parser) ParseInput(data []byte) (core.Input, error) {
	var payload streaming.InputPayload
	if err := decode(data, &payload, "input"); err != nil {
		return core.Input{}, err
	}

	action, err := decodeAction(payload.Kind, payload.Action)
	if err != nil {
		return core.Input{}, err
	}

	in := core.Input{Seq: payload.Seq, Action: action}
	if !in.Valid() {
		return core.Input{}, fmt.Errorf("%w: %s", ErrInvalidAction, payload.Kind)
	}
	return in, nil
}

func decodeAction(kind core.ActionKind, raw msgpack.RawMessage) (core.Action, error) {
	switch kind {
	case core.ActionMove:
		return decodeInto[core.MoveAction](raw, kind)
	case core.ActionJump:
		return decodeInto[core.JumpAction](raw, kind)
	case core.ActionAttack:
		return decodeInto[core.AttackAction](raw, kind)
	case core.ActionReload:
		return decodeInto[core.ReloadAction](raw, kind)
	case core.ActionInteract:
		return decodeInto[core.InteractAction](raw, kind)
	case core.ActionConsume:
		return decodeInto[core.ConsumeAction](raw, kind)
	case core.ActionVehicle:
		return decodeInto[core.VehicleAction](raw, kind)
	case core.ActionRevive:
		return decodeInto[core.ReviveAction](raw, kind)
	case core.ActionSpectate:
		return decodeInto[core.SpectateAction](raw, kind)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}
}

// decodeInto allows an empty body for actions whose fields are all optional.
func decodeInto[T core.Action](raw msgpack.RawMessage, kind core.ActionKind) (core.Action, error) {
	var a T
	if len(raw) == 0 {
		return a, nil
	}
	if err := msgpack.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %s action: %v", ErrMalformed, kind, err)
	}
	return a, nil
}

// ParseCreateMatch decodes and checks a create_match request. fallbackID is
// used when the payload leaves the match id empty.
func (p *Parser) ParseCreateMatch(data []byte, fallbackID string) (CreateMatchRequest, error) {
	var payload streaming.CreateMatchPayload
	if err := decode(data, &payload, "create_match"); err != nil {
		return CreateMatchRequest{}, err
	}

	req := CreateMatchRequest{
		MatchID: payload.MatchID,
		Players: payload.Players,
		Seed:    payload.Seed,
	}
	if req.MatchID == "" {
		req.MatchID = fallbackID
	}
	if req.MatchID == "" {
		return CreateMatchRequest{}, fmt.Errorf("%w: missing match id", ErrMalformed)
	}
	if err := p.checkRoster(req.Players); err != nil {
		return CreateMatchRequest{}, err
	}

	p.logger.Debug("Parsed create_match", "match", req.MatchID, "players", len(req.Players))
	return req, nil
}

func (p *Parser) checkRoster(players []string) error {
	if len(players) == 0 {
		return fmt.Errorf("%w: no players", ErrInvalidRoster)
	}
	if p.maxPlayers > 0 && len(players) > p.maxPlayers {
		return fmt.Errorf("%w: %d players exceeds limit of %d", ErrInvalidRoster, len(players), p.maxPlayers)
	}
	seen := make(map[string]struct{}, len(players))
	for _, id := range players {
		if id == "" {
			return fmt.Errorf("%w: empty player id", ErrInvalidRoster)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate player %q", ErrInvalidRoster, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
