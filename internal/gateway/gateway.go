// Package gateway is the server's side of the messaging gateway socket.
// The server dials out once; the gateway multiplexes every client over that
// connection using the streaming envelopes.
package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/royale/internal/config"
	"github.com/OCAP2/royale/internal/dispatcher"
	"github.com/OCAP2/royale/pkg/core"
	"github.com/OCAP2/royale/pkg/streaming"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	DefaultWriteTimeout = 10 * time.Second
)

var ErrNoURL = errors.New("gateway url not configured")

// Config holds the gateway connection settings.
type Config struct {
	URL          string
	Secret       string
	WriteTimeout time.Duration
	PingInterval time.Duration
}

// ConfigFrom converts the loaded configuration section.
func ConfigFrom(gc config.GatewayConfig) Config {
	return Config{
		URL:          gc.URL,
		Secret:       gc.Secret,
		WriteTimeout: gc.WriteTimeout,
		PingInterval: gc.PingInterval,
	}
}

// Dispatcher routes inbound commands.
type Dispatcher interface {
	Dispatch(e dispatcher.Event) (any, error)
}

// Client owns the gateway connection. It forwards inbound envelopes to the
// dispatcher and broadcasts event batches back.
type Client struct {
	cfg      Config
	conn     *connection
	dispatch Dispatcher
	log      *slog.Logger

	// subs restricts broadcasts once the gateway subscribes to specific
	// matches. Empty means every match.
	mu   sync.RWMutex
	subs map[string]struct{}
}

// New creates a client. Call Connect to dial.
func New(cfg Config, d Dispatcher, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	c := &Client{
		cfg:      cfg,
		dispatch: d,
		log:      logger.With("component", "gateway"),
		subs:     make(map[string]struct{}),
	}
	c.conn = newConnection(cfg, c.handleFrame, c.log)
	return c
}

// Connect dials the gateway and starts the read/write loops.
func (c *Client) Connect() error {
	if c.cfg.URL == "" {
		return ErrNoURL
	}
	if err := c.conn.dial(); err != nil {
		return err
	}
	c.log.Info("Connected to gateway", "url", c.cfg.URL)
	return nil
}

// Close disconnects from the gateway.
func (c *Client) Close() error {
	return c.conn.close()
}

// Broadcast sends one tick's events for a match, unless the gateway has
// subscribed to other matches only.
func (c *Client) Broadcast(matchID string, events []core.Event) {
	if !c.subscribed(matchID) {
		return
	}
	c.write(streaming.EventBatch{Type: streaming.TypeEvents, MatchID: matchID, Events: events})
}

func (c *Client) subscribed(matchID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.subs) == 0 {
		return true
	}
	_, ok := c.subs[matchID]
	return ok
}

// subscribe narrows broadcasts to matchID. An empty id resets to every match.
func (c *Client) subscribe(matchID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if matchID == "" {
		clear(c.subs)
		return
	}
	c.subs[matchID] = struct{}{}
}

func (c *Client) write(msg any) {
	data, err := msgpack.Marshal(msg)
	if err != nil {
		c.log.Error("Failed to encode gateway message", "error", err)
		return
	}
	c.conn.send(data)
}

// handleFrame runs on the read goroutine, so replies keep the order of the
// requests they answer.
func (c *Client) handleFrame(data []byte) {
	env, err := streaming.DecodeEnvelope(data)
	if err != nil {
		c.log.Warn("Dropping malformed frame", "bytes", len(data), "error", err)
		return
	}

	if env.Type == streaming.TypeSubscribe {
		c.subscribe(env.MatchID)
		c.write(streaming.AckMessage{Type: streaming.TypeAck, For: env.Type, Result: env.MatchID})
		return
	}

	result, err := c.dispatch.Dispatch(dispatcher.Event{
		Command:   env.Type,
		MatchID:   env.MatchID,
		PlayerID:  env.PlayerID,
		Payload:   env.Payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		c.write(streaming.ErrorMessage{
			Type:  streaming.TypeError,
			For:   env.Type,
			Error: fmt.Sprintf("%s: %v", describe(env), err),
		})
		return
	}

	switch msg := result.(type) {
	case streaming.StateMessage:
		c.write(msg)
	default:
		// Accepted inputs are not acknowledged; the next tick's events are.
		if env.Type == streaming.TypeInput {
			return
		}
		c.write(streaming.AckMessage{Type: streaming.TypeAck, For: env.Type, Result: msg})
	}
}

func describe(env streaming.Envelope) string {
	switch {
	case env.PlayerID != "":
		return env.MatchID + "/" + env.PlayerID
	case env.MatchID != "":
		return env.MatchID
	default:
		return env.Type
	}
}
