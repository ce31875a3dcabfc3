package hub

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"noticeboard/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	// viewers never send application data; anything beyond a control frame
	// sized payload is a misbehaving client
	maxInboundBytes = 512
)

// Session is one live viewer connection. It has no identity beyond routing
// scope: a reconnecting client is a brand-new session.
type Session struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	addr   string
	closed bool
}

// NewSession wraps an upgraded websocket connection. The connection's
// lifetime is the session's lifetime; when the read loop observes a close,
// the session deregisters immediately.
func NewSession(conn *websocket.Conn, h *Hub, addr string) *Session {
	if conn != nil {
		conn.SetReadLimit(maxInboundBytes)
	}
	return &Session{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
		hub:  h,
		addr: addr,
	}
}

// ID returns the session's ephemeral identifier.
func (s *Session) ID() string { return s.id }

// SendChan exposes the outbound event channel for reading.
func (s *Session) SendChan() <-chan []byte { return s.send }

// readPump discards inbound frames and watches for connection close. The
// push channel is session-lifetime-scoped: the read error is the only
// cancellation signal, and it deregisters the session immediately.
func (s *Session) readPump() {
	defer func() {
		s.hub.unregister <- s
		_ = s.conn.Close()
	}()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) && !isExpectedCloseError(err) {
				logger.Warn("session_read_error", "session", s.id, "remote", s.addr, "error", err)
			}
			return
		}
	}
}

// writePump drains the send channel onto the connection and keeps the
// connection alive with pings.
func (s *Session) writePump() {
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
				if !isExpectedCloseError(err) {
					logger.Warn("session_write_error", "session", s.id, "remote", s.addr, "error", err)
				}
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

// isExpectedCloseError reports whether err is routine connection teardown
// noise not worth logging.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}
