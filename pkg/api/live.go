package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"noticeboard/pkg/hub"
	"noticeboard/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The board is served to browsers on other origins; events carry no
	// caller-specific data, so any origin may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// live upgrades the request to a websocket and subscribes it to the event
// stream. No history is replayed; the socket carries only mutations
// committed after the subscription.
func (a *API) live(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		logger.Warn("ws_upgrade_failed", "remote", r.RemoteAddr, "error", err.Error())
		return
	}
	s := hub.NewSession(conn, a.hub, r.RemoteAddr)
	a.hub.Subscribe(s)
}
