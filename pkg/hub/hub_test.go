package hub

import (
	"encoding/json"
	"testing"
	"time"

	"noticeboard/pkg/models"
)

func startHub(t *testing.T, sendBuffer int) *Hub {
	t.Helper()
	h := New(sendBuffer)
	go h.Run()
	t.Cleanup(func() { _ = h.Shutdown(time.Second) })
	return h
}

func recvEvent(t *testing.T, s *Session) models.Event {
	t.Helper()
	select {
	case payload, ok := <-s.SendChan():
		if !ok {
			t.Fatal("send channel closed unexpectedly")
		}
		var e models.Event
		if err := json.Unmarshal(payload, &e); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return models.Event{}
}

func waitSessionCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.SessionCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session count = %d, want %d", h.SessionCount(), want)
}

func TestPublishReachesAllSessions(t *testing.T) {
	h := startHub(t, 8)
	a := NewSession(nil, h, "a")
	b := NewSession(nil, h, "b")
	h.Subscribe(a)
	h.Subscribe(b)

	msg := &models.Message{ID: "m1", AuthorID: "adm", Kind: models.KindText, Body: "hi"}
	h.Publish(models.Event{Type: models.EventMessageCreated, Message: msg})

	for _, s := range []*Session{a, b} {
		e := recvEvent(t, s)
		if e.Type != models.EventMessageCreated || e.Message == nil || e.Message.ID != "m1" {
			t.Fatalf("got %+v, want created event for m1", e)
		}
	}
}

func TestNoBackfillOnSubscribe(t *testing.T) {
	h := startHub(t, 8)
	early := NewSession(nil, h, "early")
	h.Subscribe(early)
	h.Publish(models.Event{Type: models.EventMessageDeleted, ID: "old"})
	recvEvent(t, early)

	late := NewSession(nil, h, "late")
	h.Subscribe(late)
	select {
	case payload, ok := <-late.SendChan():
		if ok {
			t.Fatalf("late subscriber received %s, want nothing", payload)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSlowSessionIsDropped(t *testing.T) {
	h := startHub(t, 1)
	slow := NewSession(nil, h, "slow")
	h.Subscribe(slow)
	waitSessionCount(t, h, 1)

	// first event fills the buffer, second finds it full
	h.Publish(models.Event{Type: models.EventMessageDeleted, ID: "1"})
	h.Publish(models.Event{Type: models.EventMessageDeleted, ID: "2"})

	waitSessionCount(t, h, 0)

	// drained buffer ends with a closed channel, the reconnect signal
	seen := 0
	for range slow.SendChan() {
		seen++
	}
	if seen != 1 {
		t.Fatalf("slow session received %d events, want the single buffered one", seen)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	h := startHub(t, 8)
	s := NewSession(nil, h, "s")
	h.Subscribe(s)
	waitSessionCount(t, h, 1)

	h.Unsubscribe(s)
	waitSessionCount(t, h, 0)
	// a second unsubscribe of the same session must not panic or block
	h.Unsubscribe(s)
	waitSessionCount(t, h, 0)
}

func TestPerSessionOrderMatchesPublishOrder(t *testing.T) {
	h := startHub(t, 64)
	s := NewSession(nil, h, "s")
	h.Subscribe(s)
	waitSessionCount(t, h, 1)

	const n = 20
	for i := 0; i < n; i++ {
		h.Publish(models.Event{Type: models.EventMessageDeleted, ID: string(rune('a' + i))})
	}
	for i := 0; i < n; i++ {
		e := recvEvent(t, s)
		if e.ID != string(rune('a'+i)) {
			t.Fatalf("event %d = %q, want %q", i, e.ID, string(rune('a'+i)))
		}
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	h := New(8)
	go h.Run()
	s := NewSession(nil, h, "s")
	h.Subscribe(s)

	if err := h.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if got := h.SessionCount(); got != 0 && len(h.sessions) != 0 {
		t.Fatalf("sessions after shutdown = %d, want 0", got)
	}
}

func TestSubscribeAfterShutdownReturns(t *testing.T) {
	h := New(8)
	go h.Run()
	if err := h.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	// the run loop is gone; a late subscribe or unsubscribe must not hang
	done := make(chan struct{})
	go func() {
		defer close(done)
		s := NewSession(nil, h, "late")
		h.Subscribe(s)
		h.Unsubscribe(s)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscribe blocked after shutdown")
	}
	if got := h.SessionCount(); got != 0 {
		t.Fatalf("sessions after late subscribe = %d, want 0", got)
	}
}
