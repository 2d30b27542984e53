// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ManuGH/pipview/internal/api/middleware"
	"github.com/ManuGH/pipview/internal/domain/session/model"
	"github.com/ManuGH/pipview/internal/domain/session/ports"
	"github.com/ManuGH/pipview/internal/viewer"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Host is the subset of the viewer the API drives.
type Host interface {
	Play(ctx context.Context, address string) error
	Stop(ctx context.Context) (model.SessionSnapshot, error)
	EnterOverlay(ctx context.Context) (model.SessionSnapshot, error)
	ExitOverlay(ctx context.Context) (model.SessionSnapshot, error)
	StartRecording(ctx context.Context, target string) error
	StopRecording(ctx context.Context) (model.ArtifactHandle, error)
	Resume(ctx context.Context, pending *model.HandoffEntry) error
	WaitPlaying(ctx context.Context) error
	Status() viewer.Status
}

// PermissionControl lets the API play the user answering a permission prompt.
type PermissionControl interface {
	HasStoragePermission() bool
	Grant()
	Revoke()
}

// Config configures the API server.
type Config struct {
	Version        string
	TracingService string
	RateLimit      int
	RateWindow     time.Duration
	// WaitTimeout bounds ?wait=true requests.
	WaitTimeout time.Duration
	// Readiness serves /readyz when set.
	Readiness http.Handler
	// Gate answers permission queries and requests when set.
	Gate ports.PermissionGate
}

// Server routes control requests onto a Host.
type Server struct {
	cfg        Config
	host       Host
	permission PermissionControl
	router     chi.Router
}

// New builds the server and its routes. permission may be nil.
func New(cfg Config, host Host, permission PermissionControl) *Server {
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 15 * time.Second
	}
	s := &Server{cfg: cfg, host: host, permission: permission}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	if s.cfg.Readiness != nil {
		r.Method(http.MethodGet, "/readyz", s.cfg.Readiness)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Metrics())
		if s.cfg.TracingService != "" {
			r.Use(middleware.Tracing(s.cfg.TracingService))
		}
		r.Use(middleware.Logging)
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestLimit: s.cfg.RateLimit,
			WindowSize:   s.cfg.RateWindow,
		}))

		r.Get("/status", s.handleStatus)
		r.Post("/play", s.handlePlay)
		r.Post("/stop", s.handleStop)
		r.Post("/record/start", s.handleRecordStart)
		r.Post("/record/stop", s.handleRecordStop)

		r.Route("/host", func(r chi.Router) {
			r.Post("/overlay/enter", s.handleEnterOverlay)
			r.Post("/overlay/exit", s.handleExitOverlay)
			r.Post("/resume", s.handleResume)
			r.Get("/permission", s.handleGetPermission)
			r.Post("/permission", s.handleSetPermission)
			r.Post("/permission/request", s.handleRequestPermission)
		})
	})
	return r
}
