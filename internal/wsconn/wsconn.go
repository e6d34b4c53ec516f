// Package wsconn provides a production-grade WebSocket client with reconnection.
package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("wsconn: client closed")

// ErrNotConnected is returned when sending without an established connection.
var ErrNotConnected = errors.New("wsconn: not connected")

// MessageHandler receives every inbound message.
type MessageHandler func(ctx context.Context, msg []byte)

// StateChangeHandler is notified on every state transition. err is non-nil
// when the transition was caused by a failure.
type StateChangeHandler func(state State, err error)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	Name           string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0, // infinite
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		MaxMessageSize: 1 << 22, // 4 MiB
	}
}

// Client is a reconnecting WebSocket client.
type Client struct {
	config Config

	stateMu sync.RWMutex
	state   State

	connMu  sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	handlerMu     sync.RWMutex
	onMessage     MessageHandler
	onStateChange StateChangeHandler

	lifeCtx    context.Context
	lifeCancel context.CancelFunc
	closeOnce  sync.Once
	reconnects int
}

// New creates a new WebSocket client.
func New(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("wsconn: URL is required")
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config:     config,
		state:      StateDisconnected,
		lifeCtx:    ctx,
		lifeCancel: cancel,
	}, nil
}

// OnMessage registers the inbound message handler. Must be called before
// Connect.
func (c *Client) OnMessage(fn MessageHandler) {
	c.handlerMu.Lock()
	c.onMessage = fn
	c.handlerMu.Unlock()
}

// OnStateChange registers the state transition handler. Must be called
// before Connect.
func (c *Client) OnStateChange(fn StateChangeHandler) {
	c.handlerMu.Lock()
	c.onStateChange = fn
	c.handlerMu.Unlock()
}

// Connect establishes the WebSocket connection and starts the read and ping
// loops. On failure the state returns to disconnected.
func (c *Client) Connect(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}

	c.setState(StateConnecting, nil)

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected, err)
		return fmt.Errorf("wsconn: connect %s: %w", c.config.Name, err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	c.setState(StateConnected, nil)

	go c.readLoop(conn)
	if c.config.PingInterval > 0 {
		go c.pingLoop(conn)
	}
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return nil, err
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}
	return conn, nil
}

// Send sends a raw message through the WebSocket.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	if c.isClosed() {
		return ErrClosed
	}

	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.Write(ctx, websocket.MessageText, msg)
}

// SendJSON marshals v and sends it as a text message.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wsconn: marshal: %w", err)
	}
	return c.Send(ctx, data)
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether the connection is established.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close gracefully closes the WebSocket connection. Idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.lifeCancel()

		c.connMu.Lock()
		conn := c.conn
		c.conn = nil
		c.connMu.Unlock()

		if conn != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "client shutdown")
		}
		c.setState(StateClosed, nil)
	})
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(c.lifeCtx)
		if err != nil {
			if c.isClosed() {
				return
			}
			c.handleDisconnect(err)
			return
		}

		c.handlerMu.RLock()
		fn := c.onMessage
		c.handlerMu.RUnlock()
		if fn != nil {
			fn(c.lifeCtx, data)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.lifeCtx.Done():
			return
		case <-ticker.C:
			pingCtx := c.lifeCtx
			cancel := context.CancelFunc(func() {})
			if c.config.PongTimeout > 0 {
				pingCtx, cancel = context.WithTimeout(c.lifeCtx, c.config.PongTimeout)
			}
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				// Force the read loop to observe the failure.
				_ = conn.Close(websocket.StatusGoingAway, "ping timeout")
				return
			}
		}
	}
}

// handleDisconnect transitions to reconnecting and retries with exponential
// backoff until the connection is restored, the retry budget is exhausted,
// or the client is closed.
func (c *Client) handleDisconnect(cause error) {
	c.connMu.Lock()
	c.conn = nil
	c.connMu.Unlock()

	c.setState(StateReconnecting, cause)

	backoff := c.config.InitialBackoff
	for {
		if c.config.MaxReconnects > 0 && c.reconnects >= c.config.MaxReconnects {
			c.setState(StateDisconnected, fmt.Errorf("wsconn: reconnect budget exhausted after %d attempts: %w", c.reconnects, cause))
			return
		}

		select {
		case <-c.lifeCtx.Done():
			return
		case <-time.After(backoff):
		}

		c.reconnects++
		conn, err := c.dial(c.lifeCtx)
		if err != nil {
			backoff *= 2
			if backoff > c.config.MaxBackoff {
				backoff = c.config.MaxBackoff
			}
			continue
		}

		c.connMu.Lock()
		c.conn = conn
		c.connMu.Unlock()

		c.reconnects = 0
		c.setState(StateConnected, nil)

		go c.readLoop(conn)
		if c.config.PingInterval > 0 {
			go c.pingLoop(conn)
		}
		return
	}
}

func (c *Client) isClosed() bool {
	select {
	case <-c.lifeCtx.Done():
		return true
	default:
		return false
	}
}

func (c *Client) setState(state State, err error) {
	c.stateMu.Lock()
	if c.state == StateClosed && state != StateClosed {
		c.stateMu.Unlock()
		return
	}
	c.state = state
	c.stateMu.Unlock()

	c.handlerMu.RLock()
	fn := c.onStateChange
	c.handlerMu.RUnlock()
	if fn != nil {
		fn(state, err)
	}
}
