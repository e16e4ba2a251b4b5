package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"nearby/internal/domain/chat"
)

// Frame types exchanged over the realtime channel.
const (
	FrameTypePing    = "ping"
	FrameTypePong    = "pong"
	FrameTypeMessage = "message"
)

// Frame is the JSON envelope for every realtime frame.
type Frame struct {
	Type     string        `json:"type"`
	Message  *chat.Message `json:"message,omitempty"`
	ToUserID string        `json:"to_user_id,omitempty"`
	GroupID  string        `json:"group_id,omitempty"`
	Text     string        `json:"text,omitempty"`
}

// Config contains configuration for realtime connections.
type Config struct {
	// Time allowed to write a frame to the peer
	WriteWait time.Duration

	// Expected interval between client keepalive pings
	PingInterval time.Duration

	// A connection with no inbound traffic for this long is dead;
	// defaults to twice the ping interval
	IdleTimeout time.Duration

	// Deadline for handing an inbound message frame to the dispatcher
	DispatchTimeout time.Duration

	// Maximum frame size allowed from the peer
	MaxMessageSize int64

	// Outbound buffer size per connection
	SendBuffer int
}

// DefaultConfig returns the default realtime configuration.
func DefaultConfig() Config {
	return Config{
		WriteWait:       10 * time.Second,
		PingInterval:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		DispatchTimeout: 5 * time.Second,
		MaxMessageSize:  64 * 1024,
		SendBuffer:      256,
	}
}

// Client is one WebSocket connection registered for a user. Lifecycle:
// created on handshake, registered, then destroyed on transport close or
// keepalive timeout. Reconnection is a fresh handshake with a new Client.
type Client struct {
	userID     string
	conn       *websocket.Conn
	send       chan []byte
	done       chan struct{}
	registry   *Registry
	dispatcher chat.Dispatcher
	config     Config
	log        zerolog.Logger
	closeOnce  sync.Once

	mu         sync.Mutex
	lastPingAt time.Time
}

// NewClient wraps an upgraded connection for a user. The dispatcher may be
// nil, in which case inbound message frames are ignored and the socket is
// delivery-only.
func NewClient(userID string, conn *websocket.Conn, registry *Registry, dispatcher chat.Dispatcher, config Config, log zerolog.Logger) *Client {
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 2 * config.PingInterval
	}
	if config.DispatchTimeout <= 0 {
		config.DispatchTimeout = 5 * time.Second
	}

	return &Client{
		userID:     userID,
		conn:       conn,
		send:       make(chan []byte, config.SendBuffer),
		done:       make(chan struct{}),
		registry:   registry,
		dispatcher: dispatcher,
		config:     config,
		log:        log.With().Str("component", "realtime").Str("user_id", userID).Logger(),
	}
}

// UserID returns the id supplied at handshake.
func (c *Client) UserID() string { return c.userID }

// Run registers the client and starts both pumps. It returns immediately;
// the pumps own the connection from here on.
func (c *Client) Run() {
	c.registry.Register(c.userID, c)
	go c.writePump()
	go c.readPump()
}

// Enqueue implements Handle. It never blocks: a closed client or a full
// buffer returns false.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close implements Handle. Unregisters first so no further fan-out
// targets this connection, then tears down the transport. Idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.registry.Unregister(c)
		c.conn.Close()
		c.log.Debug().Msg("connection closed")
	})
}

// readPump consumes frames from the peer. Any inbound traffic counts as
// liveness; a silent connection hits the read deadline and is closed.
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.IdleTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.IdleTimeout))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		c.conn.SetReadDeadline(time.Now().Add(c.config.IdleTimeout))
		c.handleFrame(payload)
	}
}

// writePump moves queued payloads to the peer and keeps transport-level
// pings running as a second liveness layer under the JSON keepalive.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.config.PingInterval * 9 / 10)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(payload)

			// Flush anything else already queued
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame processes one inbound frame.
func (c *Client) handleFrame(payload []byte) {
	var frame Frame
	if err := json.Unmarshal(payload, &frame); err != nil {
		c.log.Debug().Err(err).Msg("unparseable frame")
		return
	}

	switch frame.Type {
	case FrameTypePing:
		c.mu.Lock()
		c.lastPingAt = time.Now()
		c.mu.Unlock()

		pong, _ := json.Marshal(Frame{Type: FrameTypePong})
		c.Enqueue(pong)

	case FrameTypeMessage:
		if c.dispatcher == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.config.DispatchTimeout)
		defer cancel()

		_, err := c.dispatcher.Send(ctx, chat.SendInput{
			FromUserID: c.userID,
			ToUserID:   frame.ToUserID,
			GroupID:    frame.GroupID,
			Text:       frame.Text,
		})
		if err != nil {
			c.log.Debug().Err(err).Msg("inbound message rejected")
		}

	default:
		c.log.Debug().Str("type", frame.Type).Msg("unknown frame type")
	}
}

// LastPingAt returns the time of the last JSON keepalive ping.
func (c *Client) LastPingAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPingAt
}
