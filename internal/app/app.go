// Package app wires the board's components together and owns their
// lifecycle: store, hub, services, HTTP server and the retention sweeper.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"noticeboard/internal/retention"
	"noticeboard/pkg/api"
	"noticeboard/pkg/auth"
	"noticeboard/pkg/banner"
	"noticeboard/pkg/config"
	"noticeboard/pkg/hub"
	"noticeboard/pkg/logger"
	"noticeboard/pkg/service"
	"noticeboard/pkg/store"
	"noticeboard/pkg/uploads"
)

const (
	httpShutdownTimeout = 10 * time.Second
	hubShutdownTimeout  = 5 * time.Second
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.Effective
	version   string
	commit    string
	buildDate string

	store   *store.Store
	hub     *hub.Hub
	uploads *uploads.Store
	api     *api.API
	sweeper *retention.Sweeper

	srv *http.Server
}

// New initializes everything that does not need a running context: the
// store, the attachment directory and the component graph. Call Run to
// start the hub, the sweeper and the HTTP server.
func New(eff config.Effective, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	st, err := store.Open(eff.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}

	up, err := uploads.New(eff.Config.Uploads.Dir, eff.Config.Uploads.MaxSize.Int64())
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	authn, err := auth.New(eff.Config.Auth)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	h := hub.New(eff.Config.Hub.SendBuffer)
	svc := service.New(st, h, up)
	rl := auth.NewRateLimiter(eff.Config.Security.RateLimit.RPS, eff.Config.Security.RateLimit.Burst)

	a := &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		store:     st,
		hub:       h,
		uploads:   up,
		api:       api.New(svc, h, authn, up, rl),
		sweeper:   retention.New(eff.Config.Retention, st, up),
	}
	return a, nil
}

// Run starts the hub, the retention sweeper and the HTTP server, then
// blocks until ctx is cancelled or the server fails. Shutdown order is
// listener first, hub second, store last, so no component observes a
// dependency that is already gone.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run()

	stopSweep, err := a.sweeper.Start(ctx)
	if err != nil {
		return err
	}
	defer stopSweep()

	a.printBanner()

	errCh := a.startHTTP()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http_shutdown_error", "error", err.Error())
	}
	if err := a.hub.Shutdown(hubShutdownTimeout); err != nil {
		logger.Warn("hub_shutdown_timeout", "error", err.Error())
	}
	if err := a.store.Close(); err != nil {
		logger.Warn("store_close_error", "error", err.Error())
	}
	logger.Info("shutdown_complete")
	return runErr
}

// printBanner prints the startup banner and build info.
func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "" && a.commit != "none" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "" && a.buildDate != "unknown" {
		verStr += " @ " + a.buildDate
	}
	banner.Print(a.eff, verStr)
}
