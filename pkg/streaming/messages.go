// Package streaming defines the msgpack envelopes exchanged with game
// clients and orchestrators over the gateway websocket.
package streaming

import (
	"fmt"

	"github.com/OCAP2/royale/pkg/core"
	"github.com/vmihailenco/msgpack/v5"
)

// Inbound message types.
const (
	TypeInput       = "input"
	TypeCreateMatch = "create_match"
	TypeStopMatch   = "stop_match"
	TypeGetState    = "get_state"
	TypeSubscribe   = "subscribe"
)

// Outbound message types.
const (
	TypeAck    = "ack"
	TypeError  = "error"
	TypeEvents = "events"
	TypeState  = "state"
)

// Envelope wraps every frame on the socket. MatchID and PlayerID route
// inbound frames without decoding the payload.
type Envelope struct {
	Type     string             `msgpack:"type"`
	MatchID  string             `msgpack:"matchId,omitempty"`
	PlayerID string             `msgpack:"playerId,omitempty"`
	Payload  msgpack.RawMessage `msgpack:"payload,omitempty"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type   string `msgpack:"type"` // always "ack"
	For    string `msgpack:"for"`
	Result any    `msgpack:"result,omitempty"`
}

// ErrorMessage reports why an inbound frame was refused.
type ErrorMessage struct {
	Type  string `msgpack:"type"` // always "error"
	For   string `msgpack:"for"`
	Error string `msgpack:"error"`
}

// InputPayload carries one sequenced action. Action is decoded according
// to Kind.
type InputPayload struct {
	Seq    uint64             `msgpack:"seq"`
	Kind   core.ActionKind    `msgpack:"kind"`
	Action msgpack.RawMessage `msgpack:"action"`
}

// CreateMatchPayload asks the server to open a match for a roster. Teams are
// formed from consecutive roster entries.
type CreateMatchPayload struct {
	MatchID string   `msgpack:"matchId"`
	Players []string `msgpack:"players"`
	Seed    *int64   `msgpack:"seed,omitempty"`
}

// EventBatch is one tick's events for a match, in emission order.
type EventBatch struct {
	Type    string       `msgpack:"type"` // always "events"
	MatchID string       `msgpack:"matchId"`
	Events  []core.Event `msgpack:"events"`
}

// StateMessage answers get_state.
type StateMessage struct {
	Type  string         `msgpack:"type"` // always "state"
	State core.GameState `msgpack:"state"`
}

// NewEnvelope encodes payload into an envelope of the given type.
func NewEnvelope(typ, matchID, playerID string, payload any) ([]byte, error) {
	env := Envelope{Type: typ, MatchID: matchID, PlayerID: playerID}
	if payload != nil {
		raw, err := msgpack.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", typ, err)
		}
		env.Payload = raw
	}
	return msgpack.Marshal(&env)
}

// DecodeEnvelope parses the outer frame only.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

// EncodeInput builds an input payload for action. Used by clients and tests.
func EncodeInput(seq uint64, action core.Action) ([]byte, error) {
	raw, err := msgpack.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("encode %s action: %w", action.Kind(), err)
	}
	return msgpack.Marshal(&InputPayload{Seq: seq, Kind: action.Kind(), Action: raw})
}
