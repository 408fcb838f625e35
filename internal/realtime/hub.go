// Package realtime is the minimal real-time connection channel: a
// single-process websocket hub that accepts connections, logs
// connect/disconnect, and broadcasts mutation notices to every session.
// Delivery is fire-and-forget; a slow consumer is dropped rather than
// blocking the hub.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gatherly/server/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

type message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
	At   string `json:"at"`
}

type session struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub owns the session set. All registration and broadcast goes through its
// run loop, so no lock is needed.
type Hub struct {
	register   chan *session
	unregister chan *session
	broadcast  chan []byte
	sessions   map[*session]struct{}
	upgrader   websocket.Upgrader
	logger     zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		register:   make(chan *session),
		unregister: make(chan *session),
		broadcast:  make(chan []byte, 64),
		sessions:   make(map[*session]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect cross-origin; access control for the
			// channel itself is not part of this surface.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.With().Str("component", "realtime").Logger(),
	}
}

// Run processes registration and broadcast until ctx is cancelled. Call in
// its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for s := range h.sessions {
				close(s.send)
				delete(h.sessions, s)
			}
			return
		case s := <-h.register:
			h.sessions[s] = struct{}{}
			metrics.WebsocketConnections.Inc()
			h.logger.Info().Int("sessions", len(h.sessions)).Msg("client connected")
		case s := <-h.unregister:
			if _, ok := h.sessions[s]; ok {
				delete(h.sessions, s)
				close(s.send)
				metrics.WebsocketConnections.Dec()
				h.logger.Info().Int("sessions", len(h.sessions)).Msg("client disconnected")
			}
		case payload := <-h.broadcast:
			for s := range h.sessions {
				select {
				case s.send <- payload:
				default:
					// Slow consumer: drop the session instead of blocking.
					delete(h.sessions, s)
					close(s.send)
					metrics.WebsocketConnections.Dec()
				}
			}
		}
	}
}

// Publish broadcasts a typed payload to all connected sessions. It never
// blocks; when the broadcast buffer is full the notice is dropped.
func (h *Hub) Publish(kind string, payload any) {
	raw, err := json.Marshal(message{
		Type: kind,
		Data: payload,
		At:   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Error().Err(err).Str("kind", kind).Msg("marshal broadcast")
		return
	}
	select {
	case h.broadcast <- raw:
	default:
		h.logger.Warn().Str("kind", kind).Msg("broadcast buffer full, notice dropped")
	}
}

// ServeHTTP upgrades the request to a websocket and attaches the session to
// the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s := &session{conn: conn, send: make(chan []byte, sendBufferSize)}
	h.register <- s

	go s.writePump()
	go s.readPump(h)
}

// readPump drains inbound frames. The channel carries no client-to-server
// business messages; reading only services pongs and close frames.
func (s *session) readPump(h *Hub) {
	defer func() {
		h.unregister <- s
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
