package chat

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/medibridge/patient-portal/internal/observability/metrics"
	"github.com/medibridge/patient-portal/pkg/logging"
)

// ErrNotConnected is returned when a send or join is attempted while the
// realtime connection is down.
var ErrNotConnected = errors.New("chat: not connected")

// ErrNotJoined is returned when a send targets a conversation that is not
// the currently joined one.
var ErrNotJoined = errors.New("chat: conversation not joined")

// Conn owns the single realtime connection to the backend, authenticated
// with the session token. At most one connection is live at a time; at most
// one conversation room is joined at a time. Consumers observe pushes and
// connectivity through OnMessage/OnStatus and send exclusively through this
// type — nothing else may open its own socket.
type Conn struct {
	socketURL string
	logger    *logging.Logger
	metrics   *metrics.ChatMetrics
	dialer    *websocket.Dialer

	mu        sync.Mutex
	ws        *websocket.Conn
	token     string
	connected bool
	joined    string
	gen       uint64 // bumps on every successful dial; stale read pumps check it

	handlersMu     sync.RWMutex
	msgHandlers    []func(Message)
	statusHandlers []func(connected bool)
}

// NewConn creates a connection manager for socketURL. No connection is
// opened until EnsureConnected.
func NewConn(socketURL string, logger *logging.Logger, m *metrics.ChatMetrics) *Conn {
	if logger == nil {
		logger = logging.Default()
	}
	return &Conn{
		socketURL: socketURL,
		logger:    logger,
		metrics:   m,
		dialer:    websocket.DefaultDialer,
	}
}

// OnMessage registers a handler for pushed messages. Handlers run on the
// read-pump goroutine and must not block.
func (c *Conn) OnMessage(fn func(Message)) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.msgHandlers = append(c.msgHandlers, fn)
}

// OnStatus registers a handler invoked whenever connectivity flips.
func (c *Conn) OnStatus(fn func(connected bool)) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.statusHandlers = append(c.statusHandlers, fn)
}

// Connected reports whether a live connection exists.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// EnsureConnected opens a connection carrying token as its credential.
// Idempotent when already connected with the same token; a different token
// tears the old connection down first. No automatic retry: a failed dial is
// reported and the caller decides.
func (c *Conn) EnsureConnected(ctx context.Context, token string) error {
	c.mu.Lock()
	if c.connected && c.token == token {
		c.mu.Unlock()
		return nil
	}
	wasConnected := c.teardownLocked()

	u, err := url.Parse(c.socketURL)
	if err != nil {
		c.mu.Unlock()
		if wasConnected {
			c.notifyStatus(false)
		}
		return fmt.Errorf("chat: parse socket url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	ws, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		c.mu.Unlock()
		c.metrics.ObserveConnect("error")
		if wasConnected {
			c.notifyStatus(false)
		}
		return fmt.Errorf("chat: dial: %w", err)
	}

	c.ws = ws
	c.token = token
	c.connected = true
	c.joined = ""
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.metrics.ObserveConnect("ok")
	c.logger.Info("realtime connected")
	go c.readPump(ws, gen)
	c.notifyStatus(true)
	return nil
}

// Teardown closes any live connection. Safe to call when none exists.
func (c *Conn) Teardown() {
	c.mu.Lock()
	wasConnected := c.teardownLocked()
	c.mu.Unlock()
	if wasConnected {
		c.logger.Info("realtime disconnected")
		c.notifyStatus(false)
	}
}

// teardownLocked closes the socket under c.mu and reports whether a live
// connection was actually closed.
func (c *Conn) teardownLocked() bool {
	if c.ws != nil {
		c.ws.Close()
		c.ws = nil
	}
	was := c.connected
	c.connected = false
	c.joined = ""
	c.token = ""
	return was
}

// Join scopes push delivery to appointmentID, leaving any previously joined
// room first. The swap happens atomically under the connection lock so two
// rooms are never joined at once.
func (c *Conn) Join(appointmentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return ErrNotConnected
	}
	if c.joined == appointmentID {
		return nil
	}
	if c.joined != "" {
		if err := c.ws.WriteJSON(frame{Type: frameLeave, AppointmentID: c.joined}); err != nil {
			return fmt.Errorf("chat: leave %s: %w", c.joined, err)
		}
		c.joined = ""
	}
	if err := c.ws.WriteJSON(frame{Type: frameJoin, AppointmentID: appointmentID}); err != nil {
		return fmt.Errorf("chat: join %s: %w", appointmentID, err)
	}
	c.joined = appointmentID
	return nil
}

// Leave unsubscribes from appointmentID. A no-op when that room is not the
// joined one (or nothing is connected).
func (c *Conn) Leave(appointmentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.joined != appointmentID {
		return nil
	}
	if err := c.ws.WriteJSON(frame{Type: frameLeave, AppointmentID: appointmentID}); err != nil {
		return fmt.Errorf("chat: leave %s: %w", appointmentID, err)
	}
	c.joined = ""
	return nil
}

// SendMessage emits a send frame for the joined conversation. The clientID
// correlates the server echo with the optimistic local copy.
func (c *Conn) SendMessage(appointmentID, body, clientID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		c.metrics.ObserveSent("disconnected")
		return ErrNotConnected
	}
	if c.joined != appointmentID {
		return ErrNotJoined
	}
	err := c.ws.WriteJSON(frame{
		Type:          frameMessage,
		AppointmentID: appointmentID,
		Body:          body,
		ClientID:      clientID,
	})
	if err != nil {
		c.metrics.ObserveSent("error")
		return fmt.Errorf("chat: send: %w", err)
	}
	c.metrics.ObserveSent("ok")
	return nil
}

// readPump decodes inbound frames until the socket dies. gen guards against
// a pump for a torn-down connection mutating state that now belongs to a
// newer connection.
func (c *Conn) readPump(ws *websocket.Conn, gen uint64) {
	for {
		var f frame
		if err := ws.ReadJSON(&f); err != nil {
			c.mu.Lock()
			stale := c.gen != gen
			if !stale {
				wasConnected := c.teardownLocked()
				c.mu.Unlock()
				if wasConnected {
					c.logger.Warn("realtime connection lost", "error", err)
					c.notifyStatus(false)
				}
				return
			}
			c.mu.Unlock()
			return
		}

		switch f.Type {
		case frameMessage:
			if f.Message == nil {
				continue
			}
			c.metrics.ObserveReceived("message")
			c.dispatch(*f.Message)
		case frameError:
			c.metrics.ObserveReceived("error")
			c.logger.Warn("realtime server error", "error", f.Error)
		}
	}
}

func (c *Conn) dispatch(msg Message) {
	c.handlersMu.RLock()
	handlers := make([]func(Message), len(c.msgHandlers))
	copy(handlers, c.msgHandlers)
	c.handlersMu.RUnlock()
	for _, fn := range handlers {
		fn(msg)
	}
}

func (c *Conn) notifyStatus(connected bool) {
	c.handlersMu.RLock()
	handlers := make([]func(bool), len(c.statusHandlers))
	copy(handlers, c.statusHandlers)
	c.handlersMu.RUnlock()
	for _, fn := range handlers {
		fn(connected)
	}
}
