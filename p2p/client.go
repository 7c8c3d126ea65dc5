package p2p

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// DefaultReconnectDelay is the pause between connection attempts.
const DefaultReconnectDelay = 5 * time.Second

var (
	// ErrTransport wraps failures of the underlying connection.
	ErrTransport = errors.New("transport error")

	// ErrNotConnected is returned by Send while there is no connection.
	ErrNotConnected = errors.New("not connected to relay")
)

// ClientConfig configures a relay Client.
type ClientConfig struct {
	// URL of the relay, e.g. ws://localhost:8080.
	URL string

	// ReconnectDelay is the fixed delay before reconnecting after a
	// failed dial or a dropped connection.
	ReconnectDelay time.Duration

	// Handler receives every decoded inbound message.
	Handler Handler

	// OnConnect is called each time a connection is established, before
	// any inbound message is handled.
	OnConnect func()

	Logger *logrus.Entry
}

// Client keeps a websocket connection to the relay open, reconnecting
// forever until its context is cancelled.
type Client struct {
	cfg   ClientConfig
	log   *logrus.Entry
	state atomic.Int32

	// mu guards conn and serializes writes on it.
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient creates a client in the Disconnected state. Call Run to connect.
func NewClient(cfg ClientConfig) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Client{
		cfg: cfg,
		log: log.WithField("relay", cfg.URL),
	}
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

func (c *Client) setState(s ConnState) {
	if ConnState(c.state.Swap(int32(s))) != s {
		c.log.Debugf("Relay connection %s", s)
	}
}

// Send encodes msg and writes it to the relay, which forwards it to every
// other peer.
func (c *Client) Send(msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", msg.Type(), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: send %s: %v", ErrTransport, msg.Type(), err)
	}
	return nil
}

// Run connects to the relay and serves inbound messages, reconnecting after
// ReconnectDelay whenever the connection fails. It returns nil once ctx is
// cancelled.
func (c *Client) Run(ctx context.Context) error {
	b := backoff.WithContext(backoff.NewConstantBackOff(c.cfg.ReconnectDelay), ctx)

	err := backoff.RetryNotify(func() error {
		return c.serve(ctx)
	}, b, func(err error, next time.Duration) {
		c.log.Warnf("Relay connection lost: %v, reconnecting in %v", err, next)
	})

	c.setState(Disconnected)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// serve runs one connection until it fails or ctx is cancelled.
func (c *Client) serve(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.setState(Connecting)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		c.setState(Disconnected)
		return fmt.Errorf("%w: dial: %v", ErrTransport, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.setState(Connected)
	c.log.Info("Connected to relay")

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
		c.setState(Disconnected)
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if c.cfg.OnConnect != nil {
		c.cfg.OnConnect()
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: read: %v", ErrTransport, err)
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	msg, err := Decode(data)
	if err != nil {
		c.log.Debugf("Ignoring message: %v", err)
		return
	}
	if c.cfg.Handler == nil {
		return
	}
	if err := Dispatch(msg, c.cfg.Handler); err != nil {
		c.log.Warnf("Failed to handle %s: %v", msg.Type(), err)
	}
}
