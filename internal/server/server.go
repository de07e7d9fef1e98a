// Package server exposes a match over HTTP for scoreboards and scorekeepers:
// a JSON API over the controller, a websocket standings feed and a jam clock.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/derekprior/heatsheet/internal/control"
)

const shutdownTimeout = 15 * time.Second

// Options configures a Server.
type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	Autosave       bool
	TeamsPerHeat   int           // default for POST /api/assign
	TickInterval   time.Duration // one jam-clock second; defaults to time.Second
}

// Server serializes every request onto one controller.
type Server struct {
	log     *slog.Logger
	opts    Options
	hub     *Hub
	handler http.Handler

	mu      sync.Mutex // guards ctrl and running
	ctrl    *control.Controller
	running bool
}

// New wraps ctrl. The server subscribes to it for the lifetime of the process.
func New(ctrl *control.Controller, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	s := &Server{
		log:  opts.Logger,
		opts: opts,
		hub:  NewHub(opts.Logger),
		ctrl: ctrl,
	}
	ctrl.Subscribe(s.onEvent)
	s.handler = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run serves on addr until ctx is cancelled or the listener fails, running
// the websocket hub and the jam clock alongside.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(s.log.Handler(), slog.LevelError),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		s.RunClock(ctx)
		return nil
	})
	g.Go(func() error {
		s.log.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.log.Info("shutting down server", "timeout", shutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.log.Info("server stopped")
	return err
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/match", s.getMatch)
		r.Get("/standings", s.getStandings)
		r.Get("/standings.png", s.getStandingsImage)
		r.Get("/distribution", s.getDistribution)
		r.Post("/assign", s.postAssign)

		r.Route("/jams", func(r chi.Router) {
			r.Get("/current", s.getCurrentJam)
			r.Post("/current/select", s.postSelect)
			r.Post("/current/score", s.postScore)
			r.Put("/{seq}", s.putJam)
		})

		r.Route("/clock", func(r chi.Router) {
			r.Post("/start", s.postClockStart)
			r.Post("/stop", s.postClockStop)
			r.Post("/reset", s.postClockReset)
		})
	})
	r.Get("/ws", s.serveWs)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start))
	})
}

// onEvent runs inside controller calls, so s.mu is already held.
func (s *Server) onEvent(ev control.Event) {
	if ev.Kind == control.EventSelect || ev.Kind == control.EventLoad {
		s.running = false
	}
	s.hub.Broadcast(eventMessage(ev))

	if ev.Kind == control.EventJam && s.running {
		return
	}
	s.autosave()
}

func (s *Server) autosave() {
	if !s.opts.Autosave || s.ctrl.Match().SaveFilePath == "" || !s.ctrl.Unsaved() {
		return
	}
	if err := s.ctrl.Save(""); err != nil {
		s.log.Error("autosave failed", "path", s.ctrl.Match().SaveFilePath, "err", err)
	}
}
