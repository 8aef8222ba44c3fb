package volumio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ErrNotConnected is returned by Emit while the websocket session is down.
// Callers may fall back to the REST transport.
var ErrNotConnected = errors.New("volumio: not connected")

const writeTimeout = 5 * time.Second

// Client is a socket.io client for one Volumio instance. Run maintains the
// session and reconnects with capped exponential backoff; Emit sends events
// on the live session.
type Client struct {
	URL string // ws endpoint, from Endpoint()

	// Reconnect backoff bounds. Zero values get sane defaults.
	ReconnectMin time.Duration
	ReconnectMax time.Duration

	log *logrus.Entry

	mu        sync.Mutex // guards conn and all writes to it
	conn      *websocket.Conn
	connected bool

	handlersMu sync.RWMutex
	handlers   map[string][]func(json.RawMessage)
}

// Endpoint builds the websocket URL for a Volumio host. Volumio serves
// socket.io 1.x, hence the engine.io v3 query.
func Endpoint(host string, port int) string {
	return fmt.Sprintf("ws://%s:%d/socket.io/?EIO=3&transport=websocket", host, port)
}

// New returns a client for the Volumio instance at host:port.
func New(host string, port int) *Client {
	return &Client{
		URL:          Endpoint(host, port),
		ReconnectMin: time.Second,
		ReconnectMax: time.Minute,
		log:          logrus.WithField("component", "volumio"),
		handlers:     make(map[string][]func(json.RawMessage)),
	}
}

// On registers a handler for a push event. Handlers run on the read loop
// goroutine and must not block.
func (c *Client) On(event string, fn func(json.RawMessage)) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers[event] = append(c.handlers[event], fn)
}

// Connected reports whether the socket.io session is established.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Run maintains the connection until the context is cancelled.
func (c *Client) Run(ctx context.Context) {
	backoff := c.ReconnectMin
	if backoff <= 0 {
		backoff = time.Second
	}
	maxBackoff := c.ReconnectMax
	if maxBackoff <= 0 {
		maxBackoff = time.Minute
	}

	for {
		start := time.Now()
		err := c.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.log.WithError(err).Warn("session ended")
		}

		// A session that survived a while means the server was healthy;
		// start the backoff over.
		if time.Since(start) > maxBackoff {
			backoff = c.ReconnectMin
		}

		c.log.WithField("in", backoff.String()).Info("reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// session dials, performs the engine.io handshake and serves the read loop
// until the connection drops or the context is cancelled.
func (c *Client) session(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.URL, err)
	}

	defer func() {
		c.mu.Lock()
		c.connected = false
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}()

	hs, err := readHandshake(conn)
	if err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{
		"sid":          hs.SID,
		"pingInterval": hs.PingInterval,
	}).Debug("handshake complete")

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	pingInterval := time.Duration(hs.PingInterval) * time.Millisecond
	readDeadline := pingInterval + time.Duration(hs.PingTimeout)*time.Millisecond

	stop := context.AfterFunc(ctx, func() {
		c.writeFrame(closeFrame)
		conn.Close()
	})
	defer stop()

	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go c.pingLoop(pingCtx, pingInterval)

	for {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		p, err := ParsePacket(raw)
		if err != nil {
			c.log.WithError(err).Warn("dropping unparseable frame")
			continue
		}

		switch p.Engine {
		case EnginePong, EngineNoop:
			// deadline already refreshed
		case EngineClose:
			return errors.New("server closed the session")
		case EngineMessage:
			switch p.Socket {
			case SocketConnect:
				c.mu.Lock()
				c.connected = true
				c.mu.Unlock()
				c.log.Info("connected")
			case SocketDisconnect:
				return errors.New("server disconnected the namespace")
			case SocketError:
				c.log.WithField("payload", string(p.Payload)).Warn("server error packet")
			case SocketEvent:
				c.dispatch(p)
			}
		}
	}
}

func readHandshake(conn *websocket.Conn) (Handshake, error) {
	conn.SetReadDeadline(time.Now().Add(writeTimeout * 2))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return Handshake{}, fmt.Errorf("read handshake: %w", err)
	}
	p, err := ParsePacket(raw)
	if err != nil {
		return Handshake{}, err
	}
	if p.Engine != EngineOpen {
		return Handshake{}, fmt.Errorf("expected open packet, got %q", p.Engine)
	}
	return ParseHandshake(p.Payload)
}

func (c *Client) pingLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 25 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.writeFrame(pingFrame); err != nil {
				c.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}

func (c *Client) dispatch(p Packet) {
	c.handlersMu.RLock()
	handlers := c.handlers[p.Event]
	c.handlersMu.RUnlock()

	if len(handlers) == 0 {
		c.log.WithField("event", p.Event).Debug("unhandled push event")
		return
	}
	for _, fn := range handlers {
		fn(p.Data)
	}
}

func (c *Client) writeFrame(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// Emit sends an event to Volumio on the live session.
func (c *Client) Emit(ctx context.Context, event string, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	frame, err := EncodeEvent(event, args...)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected {
		return ErrNotConnected
	}
	c.log.WithField("event", event).Debug("emit")
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}
