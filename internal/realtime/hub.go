// Package realtime implements the fan-out hub that delivers events to a
// user's connected sessions.
//
// The hub is the only component with shared mutable state: a membership table
// mapping channels to live connections. All membership mutation and publish
// snapshotting is serialized behind one mutex; per-connection delivery runs
// over buffered channels so a slow writer never blocks a publish. Membership
// is process-local and rebuilt from scratch on restart; a multi-process
// deployment needs an external relay between hubs.
package realtime

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/devang-458/HealthIQ/internal/models"
	"github.com/google/uuid"
)

// ConnState tracks a connection through its lifecycle.
type ConnState int

const (
	// StateConnecting is the initial state of a new connection.
	StateConnecting ConnState = iota
	// StateAuthenticating means a credential has been received and is being verified.
	StateAuthenticating
	// StateSubscribed means the connection is authenticated and joined to its user channel.
	StateSubscribed
	// StateClosed means the connection has dropped and left all channels.
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateSubscribed:
		return "subscribed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Errors returned by hub operations.
var (
	ErrNotSubscribed = errors.New("connection is not subscribed")
	ErrConnClosed    = errors.New("connection is closed")
)

// sendBufferSize bounds the per-connection event queue. A connection that
// falls this far behind loses events and must recover via a re-fetch.
const sendBufferSize = 64

// Event is a named payload delivered to a subscribed connection.
type Event struct {
	Name    string `json:"event"`
	Channel string `json:"channel,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Verifier validates a session credential and resolves the user it belongs to.
type Verifier interface {
	Verify(credential string) (userID string, err error)
}

// Conn is one live client connection tracked by the hub. Its state is
// guarded by the hub's lock.
type Conn struct {
	id     string
	state  ConnState
	userID string
	send   chan Event
}

// ID returns the connection's hub-assigned identifier.
func (c *Conn) ID() string { return c.id }

// Events returns the channel events are delivered on. It is closed when the
// connection closes.
func (c *Conn) Events() <-chan Event { return c.send }

// Hub maintains channel membership across concurrent client connections.
type Hub struct {
	verifier Verifier

	mu       sync.Mutex
	conns    map[*Conn]bool
	channels map[string]map[*Conn]bool
	joined   map[*Conn][]string
}

// NewHub creates a hub that authenticates credentials with the given verifier.
func NewHub(verifier Verifier) *Hub {
	return &Hub{
		verifier: verifier,
		conns:    make(map[*Conn]bool),
		channels: make(map[string]map[*Conn]bool),
		joined:   make(map[*Conn][]string),
	}
}

// NewConn registers a new connection in the Connecting state. The connection
// is tracked from this point, so Shutdown reaches it even before it
// authenticates.
func (h *Hub) NewConn() *Conn {
	c := &Conn{
		id:    uuid.NewString(),
		state: StateConnecting,
		send:  make(chan Event, sendBufferSize),
	}
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
	slog.Debug("Hub.NewConn: connection registered", "connID", c.id)
	return c
}

// Authenticate validates the credential and, if valid, subscribes the
// connection to its user channel and acknowledges with an authenticated
// event. An invalid credential emits an authentication_error event and
// leaves the connection un-subscribed but open.
func (h *Hub) Authenticate(c *Conn, credential string) error {
	h.mu.Lock()
	if c.state == StateClosed {
		h.mu.Unlock()
		return ErrConnClosed
	}
	c.state = StateAuthenticating
	h.mu.Unlock()

	userID, err := h.verifier.Verify(credential)
	if err != nil {
		h.mu.Lock()
		if c.state == StateAuthenticating {
			c.state = StateConnecting
		}
		h.mu.Unlock()
		slog.Warn("Hub.Authenticate: credential rejected", "connID", c.id, "error", err)
		h.deliver(c, Event{Name: models.EventAuthenticationError, Payload: map[string]string{"error": "invalid credential"}})
		return err
	}

	h.mu.Lock()
	if c.state == StateClosed {
		h.mu.Unlock()
		return ErrConnClosed
	}
	c.userID = userID
	c.state = StateSubscribed
	h.joinLocked(c, models.UserChannel(userID))
	h.mu.Unlock()

	slog.Info("Hub.Authenticate: connection subscribed", "connID", c.id, "userID", userID)
	h.deliver(c, Event{Name: models.EventAuthenticated, Payload: map[string]string{"userId": userID}})
	return nil
}

// SubscribeHealth joins the connection to its passive health channel for
// dashboard refresh hints. The connection must already be subscribed.
func (h *Hub) SubscribeHealth(c *Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.state != StateSubscribed {
		return ErrNotSubscribed
	}
	h.joinLocked(c, models.HealthChannel(c.userID))
	slog.Debug("Hub.SubscribeHealth: joined health channel", "connID", c.id, "userID", c.userID)
	return nil
}

// Publish delivers the event to every connection currently subscribed to the
// channel. Delivery is best-effort: a connection whose queue is full misses
// the event and recovers state via a pull path. Publishing to an empty
// channel is not an error.
func (h *Hub) Publish(channel, event string, payload any) error {
	h.mu.Lock()
	members := make([]*Conn, 0, len(h.channels[channel]))
	for c := range h.channels[channel] {
		if c.state == StateSubscribed {
			members = append(members, c)
		}
	}
	h.mu.Unlock()

	ev := Event{Name: event, Channel: channel, Payload: payload}
	for _, c := range members {
		h.deliver(c, ev)
	}
	slog.Debug("Hub.Publish: event published", "channel", channel, "event", event, "receivers", len(members))
	return nil
}

// CloseConn moves the connection to Closed and removes its channel
// memberships. Other connections for the same user remain subscribed.
func (h *Hub) CloseConn(c *Conn) {
	h.mu.Lock()
	if c.state == StateClosed {
		h.mu.Unlock()
		return
	}
	c.state = StateClosed
	for _, ch := range h.joined[c] {
		if members, ok := h.channels[ch]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.channels, ch)
			}
		}
	}
	delete(h.joined, c)
	delete(h.conns, c)
	// Closed under the lock so deliver can never send on a closed channel.
	close(c.send)
	h.mu.Unlock()

	slog.Debug("Hub.CloseConn: connection closed", "connID", c.id, "userID", c.userID)
}

// Shutdown closes every tracked connection and clears the membership table.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	var open []*Conn
	for c := range h.conns {
		open = append(open, c)
	}
	h.mu.Unlock()
	for _, c := range open {
		h.CloseConn(c)
	}
	slog.Info("Hub.Shutdown: all connections closed", "count", len(open))
}

// SubscriberCount reports how many subscribed connections a channel has.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	count := 0
	for c := range h.channels[channel] {
		if c.state == StateSubscribed {
			count++
		}
	}
	return count
}

// State returns the connection's current lifecycle state.
func (h *Hub) State(c *Conn) ConnState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return c.state
}

func (h *Hub) joinLocked(c *Conn, channel string) {
	members, ok := h.channels[channel]
	if !ok {
		members = make(map[*Conn]bool)
		h.channels[channel] = members
	}
	if !members[c] {
		members[c] = true
		h.joined[c] = append(h.joined[c], channel)
	}
}

// deliver queues the event without blocking. The state check and the send
// share the hub lock with CloseConn, so a concurrent close drops the event
// instead of racing the channel close.
func (h *Hub) deliver(c *Conn, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.state == StateClosed {
		slog.Debug("Hub.deliver: connection closed, dropping event", "connID", c.id, "event", ev.Name)
		return
	}
	select {
	case c.send <- ev:
	default:
		slog.Warn("Hub.deliver: event queue full, dropping event", "connID", c.id, "event", ev.Name)
	}
}
