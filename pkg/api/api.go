// Package api exposes the board over HTTP: message and poll CRUD, admin
// login, attachment serving and the live websocket stream. Handlers stay
// thin; authorization and ordering rules live in the service layer.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"noticeboard/pkg/auth"
	"noticeboard/pkg/hub"
	"noticeboard/pkg/service"
	"noticeboard/pkg/telemetry"
	"noticeboard/pkg/uploads"
)

// API bundles the collaborators the HTTP surface needs.
type API struct {
	svc     *service.Service
	hub     *hub.Hub
	auth    *auth.Authenticator
	uploads *uploads.Store
	limiter *auth.RateLimiter
}

func New(svc *service.Service, h *hub.Hub, a *auth.Authenticator, up *uploads.Store, rl *auth.RateLimiter) *API {
	return &API{svc: svc, hub: h, auth: a, uploads: up, limiter: rl}
}

// Router builds the full route table. Identity resolution and request
// metrics wrap everything; the rate limiter wraps only mutation and vote
// routes so reads and the live stream stay cheap.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(telemetry.Middleware)
	r.Use(a.auth.Middleware)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/login", a.login).Methods(http.MethodPost)

	v1.HandleFunc("/messages", a.listMessages).Methods(http.MethodGet)
	v1.Handle("/messages", a.limited(a.createMessage)).Methods(http.MethodPost)
	v1.HandleFunc("/messages/{id}", a.getMessage).Methods(http.MethodGet)
	v1.Handle("/messages/{id}", a.limited(a.updateMessage)).Methods(http.MethodPut)
	v1.Handle("/messages/{id}", a.limited(a.deleteMessage)).Methods(http.MethodDelete)

	v1.HandleFunc("/polls", a.listPolls).Methods(http.MethodGet)
	v1.Handle("/polls", a.limited(a.createPoll)).Methods(http.MethodPost)
	v1.Handle("/polls/{id}/vote", a.limited(a.vote)).Methods(http.MethodPost)

	v1.HandleFunc("/live", a.live).Methods(http.MethodGet)

	r.HandleFunc("/uploads/{ref}", a.serveUpload).Methods(http.MethodGet)
	return r
}

func (a *API) limited(h http.HandlerFunc) http.Handler {
	return a.limiter.Middleware(h)
}
