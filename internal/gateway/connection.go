package gateway

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	sendChSize   = 10_000
	maxReconnect = 10
	maxBackoff   = 30 * time.Second
)

// connection manages the outbound gateway socket with a single write
// goroutine. Inbound frames are handed to onFrame from the read goroutine.
type connection struct {
	mu     sync.Mutex
	conn   *ws.Conn
	sendCh chan []byte
	done   chan struct{} // closed on shutdown
	closed bool

	reconnecting atomic.Bool

	wsURL        string
	secret       string
	writeWait    time.Duration
	pingInterval time.Duration

	onFrame func([]byte)
	logger  *slog.Logger
}

func newConnection(cfg Config, onFrame func([]byte), logger *slog.Logger) *connection {
	return &connection{
		sendCh:       make(chan []byte, sendChSize),
		done:         make(chan struct{}),
		wsURL:        cfg.URL,
		secret:       cfg.Secret,
		writeWait:    cfg.WriteTimeout,
		pingInterval: cfg.PingInterval,
		onFrame:      onFrame,
		logger:       logger,
	}
}

// dial connects to the gateway and starts read/write loops.
func (c *connection) dial() error {
	conn, err := c.dialOnce()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.start(conn)
	return nil
}

// dialOnce performs a single dial with the secret query param.
func (c *connection) dialOnce() (*ws.Conn, error) {
	u, err := url.Parse(c.wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway URL: %w", err)
	}
	if c.secret != "" {
		q := u.Query()
		q.Set("secret", c.secret)
		u.RawQuery = q.Encode()
	}

	conn, _, err := ws.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("gateway dial failed: %w", err)
	}
	return conn, nil
}

func (c *connection) start(conn *ws.Conn) {
	if c.pingInterval > 0 {
		// A missed pong lets the read deadline expire and triggers a reconnect.
		_ = conn.SetReadDeadline(time.Now().Add(2 * c.pingInterval))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(2 * c.pingInterval))
		})
	}
	go c.writeLoop(conn)
	go c.readLoop(conn)
}

// writeLoop drains sendCh onto conn and pings it. It returns on error or
// shutdown.
func (c *connection) writeLoop(conn *ws.Conn) {
	var ping <-chan time.Time
	if c.pingInterval > 0 {
		t := time.NewTicker(c.pingInterval)
		defer t.Stop()
		ping = t.C
	}

	for {
		select {
		case <-c.done:
			return
		case <-ping:
			if err := conn.WriteControl(ws.PingMessage, nil, time.Now().Add(c.writeWait)); err != nil {
				c.logger.Warn("Gateway ping failed", "error", err)
				go c.reconnect()
				return
			}
		case data := <-c.sendCh:
			if err := conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
				c.logger.Warn("Gateway SetWriteDeadline error", "error", err)
				go c.reconnect()
				return
			}
			if err := conn.WriteMessage(ws.BinaryMessage, data); err != nil {
				c.logger.Warn("Gateway write error", "error", err)
				go c.reconnect()
				return
			}
		}
	}
}

// readLoop hands every frame to onFrame until conn fails.
func (c *connection) readLoop(conn *ws.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			c.logger.Warn("Gateway read error", "error", err)
			go c.reconnect()
			return
		}
		c.onFrame(message)
	}
}

// reconnect re-establishes the socket with exponential backoff. Both loops
// may ask for it; only the first caller does the work.
func (c *connection) reconnect() {
	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}
	defer c.reconnecting.Store(false)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	backoff := time.Second
	for attempt := 1; attempt <= maxReconnect; attempt++ {
		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}

		c.logger.Info("Reconnecting to gateway", "attempt", attempt)
		conn, err := c.dialOnce()
		if err != nil {
			c.logger.Warn("Reconnect dial failed", "attempt", attempt, "error", err)
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		c.mu.Unlock()

		c.logger.Info("Gateway reconnected", "attempt", attempt)
		c.start(conn)
		return
	}

	c.logger.Error("Gateway reconnect failed after max attempts", "maxAttempts", maxReconnect)
}

// send pushes data to the write loop. Non-blocking; drops if channel full.
func (c *connection) send(data []byte) bool {
	select {
	case c.sendCh <- data:
		return true
	default:
		c.logger.Warn("Gateway send channel full, dropping message")
		return false
	}
}

// close sends a close frame and shuts down all goroutines.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
			time.Now().Add(c.writeWait),
		)
		return conn.Close()
	}
	return nil
}
