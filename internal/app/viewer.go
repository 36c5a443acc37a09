package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/samvad-hq/seoul-parking-map/internal/config"
	"github.com/samvad-hq/seoul-parking-map/internal/logger"
	"github.com/samvad-hq/seoul-parking-map/internal/mapview"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Viewer is the map runtime: it loads the configured district onto an
// in-memory canvas and serves it over HTTP.
type Viewer struct {
	cfg    *config.Config
	canvas *mapview.Canvas
	screen *mapview.Screen
	server *http.Server
	log    logger.Logger
}

// NewViewer builds the map runtime from config.
func NewViewer(cfg *config.Config, log logger.Logger) (*Viewer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)

	client, err := newParkingClient(cfg, log)
	if err != nil {
		return nil, err
	}

	canvas := mapview.NewCanvas()
	screen := mapview.NewScreen(client, cfg.District, log)

	return &Viewer{
		cfg:    cfg,
		canvas: canvas,
		screen: screen,
		server: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           mapview.NewRouter(canvas, screen, log),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		log: log,
	}, nil
}

// Handler exposes the HTTP surface.
func (v *Viewer) Handler() http.Handler {
	return v.server.Handler
}

// Load signals that the map is ready, which starts the district fetch.
func (v *Viewer) Load() <-chan struct{} {
	v.screen.OnMapReady(v.canvas)
	return v.screen.Done()
}

// Run serves the map until ctx is cancelled, then tears the screen down.
func (v *Viewer) Run(ctx context.Context) error {
	if v == nil || v.server == nil {
		return fmt.Errorf("viewer is not initialized")
	}

	serveErr := make(chan error, 1)
	go func() {
		v.log.InfoObj("http server listening", "http_addr", v.cfg.HTTPAddr)
		if err := v.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	v.Load()

	var runErr error
	select {
	case <-ctx.Done():
		v.log.InfoObj("viewer shutting down", "reason", ctx.Err().Error())
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	v.screen.Destroy()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := v.server.Shutdown(shutdownCtx); err != nil {
		v.log.ErrorObj("http server shutdown failed", "error", err.Error())
	}

	return runErr
}
