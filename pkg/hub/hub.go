// Package hub fans committed mutation events out to connected viewer
// sessions. Delivery is best-effort and fire-and-forget: there is no queue
// and no redelivery. A session that misses an event recovers by re-fetching
// history, not by replay.
package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"noticeboard/pkg/logger"
	"noticeboard/pkg/models"
)

// Hub maintains the set of live sessions and relays events to all of them.
// It is created once at process start and passed by handle to whichever
// component needs to publish.
type Hub struct {
	sessions   map[*Session]bool
	register   chan *Session
	unregister chan *Session
	events     chan []byte

	mu         sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	sendBuffer int
}

// New creates a hub whose sessions each get a send buffer of sendBuffer
// encoded events. Run must be started in its own goroutine.
func New(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		sessions:   make(map[*Session]bool),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		events:     make(chan []byte, 64),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		sendBuffer: sendBuffer,
	}
}

// Subscribe registers a session for live events. No historical backfill is
// sent; the caller fetches current history separately.
func (h *Hub) Subscribe(s *Session) {
	select {
	case h.register <- s:
	case <-h.ctx.Done():
	}
}

// Unsubscribe deregisters a session. Idempotent; unknown sessions are
// ignored.
func (h *Hub) Unsubscribe(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.ctx.Done():
	}
}

// Publish encodes the event once and delivers it to every subscribed
// session, originator included. Per-session order matches publish order;
// a session whose buffer is full silently misses the event.
func (h *Hub) Publish(e models.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		logger.Error("event_encode_failed", "type", string(e.Type), "error", err)
		return
	}
	select {
	case h.events <- payload:
	case <-h.ctx.Done():
	}
	eventsPublished.WithLabelValues(string(e.Type)).Inc()
}

// SessionCount returns the number of currently subscribed sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Run is the hub's main event loop. It owns the session set: registration,
// deregistration and fan-out all happen here.
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case s := <-h.register:
			if s == nil {
				continue
			}
			h.mu.Lock()
			s.closed = false
			h.sessions[s] = true
			count := len(h.sessions)
			h.mu.Unlock()
			sessionsGauge.Set(float64(count))
			logger.Info("session_subscribed", "session", s.id, "remote", s.addr, "sessions", count)

			if s.conn != nil {
				h.wg.Add(2)
				go func() {
					defer h.wg.Done()
					s.writePump()
				}()
				go func() {
					defer h.wg.Done()
					s.readPump()
				}()
			}

		case s := <-h.unregister:
			h.drop(s, "closed")

		case payload := <-h.events:
			h.fanOut(payload)
		}
	}
}

// fanOut delivers one encoded event to every session without blocking on
// any of them. Sessions with a full buffer are dropped: a viewer that slow
// is better served by a reconnect plus history fetch than by unbounded
// queueing.
func (h *Hub) fanOut(payload []byte) {
	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if !h.trySend(s, payload) {
			eventsDropped.Inc()
			h.drop(s, "send_buffer_full")
		}
	}
}

// trySend delivers payload to one session if it is still registered and has
// buffer space.
func (h *Hub) trySend(s *Session, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.sessions[s]; !ok || s.closed {
		return false
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// drop removes a session and closes its send channel. Safe to call for
// sessions that were already removed.
func (h *Hub) drop(s *Session, reason string) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s)
	s.closed = true
	count := len(h.sessions)
	h.mu.Unlock()

	close(s.send)
	sessionsGauge.Set(float64(count))
	logger.Info("session_unsubscribed", "session", s.id, "reason", reason, "sessions", count)
}

// closeAll terminates every live session during shutdown.
func (h *Hub) closeAll() {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
		s.closed = true
	}
	h.sessions = make(map[*Session]bool)
	h.mu.Unlock()

	for _, s := range sessions {
		close(s.send)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	}
	sessionsGauge.Set(0)
	logger.Info("hub_sessions_closed", "count", len(sessions))
}

// Shutdown stops the run loop, closes all sessions and waits for their
// pumps to finish or the timeout to pass.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		logger.Info("hub_shutdown_complete")
		return nil
	case <-time.After(timeout):
		logger.Warn("hub_shutdown_timeout")
		return context.DeadlineExceeded
	}
}
