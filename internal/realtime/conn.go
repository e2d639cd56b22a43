package realtime

// This file adapts the hub to gorilla/websocket: each HTTP upgrade produces
// one hub connection, a writer goroutine drains its event queue, and the read
// loop handles the authenticate/subscribe handshake.

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client actions accepted over the websocket.
const (
	ActionAuthenticate    = "authenticate"
	ActionSubscribeHealth = "subscribe_health"
)

// ClientMessage is an inbound websocket frame.
type ClientMessage struct {
	Action string `json:"action"`
	Token  string `json:"token,omitempty"`
}

// ServeWS returns a handler that upgrades the request and drives the
// connection through the hub's lifecycle until the peer disconnects.
func ServeWS(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("ServeWS: websocket upgrade failed", "error", err)
			return
		}

		c := hub.NewConn()
		slog.Info("ServeWS: websocket client connected", "connID", c.ID())

		// Writer: drain the hub's event queue onto the socket. Exits when
		// CloseConn closes the queue.
		go func() {
			for ev := range c.Events() {
				if err := ws.WriteJSON(ev); err != nil {
					slog.Warn("ServeWS: websocket write failed", "connID", c.ID(), "error", err)
				}
			}
			ws.Close()
		}()

		for {
			var msg ClientMessage
			if err := ws.ReadJSON(&msg); err != nil {
				slog.Info("ServeWS: websocket client disconnected", "connID", c.ID(), "error", err.Error())
				break
			}
			switch msg.Action {
			case ActionAuthenticate:
				// A rejected credential is reported to the client via an
				// authentication_error event; the connection stays open.
				if err := hub.Authenticate(c, msg.Token); err != nil {
					slog.Debug("ServeWS: authentication failed", "connID", c.ID(), "error", err)
				}
			case ActionSubscribeHealth:
				if err := hub.SubscribeHealth(c); err != nil {
					slog.Warn("ServeWS: health subscription rejected", "connID", c.ID(), "error", err)
				}
			default:
				slog.Warn("ServeWS: unknown client action", "connID", c.ID(), "action", msg.Action)
			}
		}

		hub.CloseConn(c)
	}
}
