// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

// Package api serves the local status and control API of the agent.
//
//	GET  /health                  liveness, no authentication
//	GET  /api/v1/server           process status, resource usage, output tail
//	POST /api/v1/server/{action}  start, stop, restart or kill (202, runs in background)
//	POST /api/v1/server/command   submit a console command
//	GET  /api/v1/cycle            report of the last maintenance cycle
//	GET  /api/v1/jobs             recently finished jobs, newest first
//	GET  /metrics                 Prometheus metrics
//
// Everything except /health requires the configured bearer token. All routes
// are rate limited per client IP.
package api

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/serverpilot/internal/config"
	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/middleware"
	"github.com/tomtom215/serverpilot/internal/process"
	"github.com/tomtom215/serverpilot/internal/state"
)

// ServerControl is the lifecycle surface of the managed server.
// *process.Supervisor implements it.
type ServerControl interface {
	Status() process.Status
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Kill(ctx context.Context) error
	Restart(ctx context.Context)
	SubmitCommand(text string) error
}

// StatsSource returns the latest resource sample of the managed process.
type StatsSource interface {
	Latest() process.Stats
}

// OutputSource returns the last lines the managed process printed.
type OutputSource interface {
	Lines(n int) []string
}

// CycleSource returns the report of the last maintenance cycle.
type CycleSource interface {
	LastCycleReport() (*state.CycleReport, error)
}

// JobSource returns recently finished jobs, newest first.
type JobSource interface {
	Recent(n int) []jobs.Event
}

// Deps are the collaborators of the API. Stats, Output and Jobs are optional.
type Deps struct {
	Server  ServerControl
	Stats   StatsSource
	Output  OutputSource
	Cycles  CycleSource
	Jobs    JobSource
	Version string
}

// Server holds the API handlers.
type Server struct {
	cfg     config.APIConfig
	deps    Deps
	started time.Time

	// busy is set while a lifecycle action runs in the background.
	busy    atomic.Bool
	actions sync.WaitGroup
}

// New creates the API.
func New(cfg config.APIConfig, deps Deps) *Server {
	return &Server{cfg: cfg, deps: deps, started: time.Now()}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(httprate.Limit(s.cfg.RateLimitReqs, s.cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			NewResponseWriter(w, r).TooManyRequests("Rate limit exceeded")
		}),
	))
	r.Use(middleware.PrometheusMetrics)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("No such endpoint")
	})

	r.Get("/health", s.health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerToken(s.cfg.Token, func(w http.ResponseWriter, r *http.Request) {
			NewResponseWriter(w, r).Unauthorized("Missing or invalid bearer token")
		}))

		r.Handle("/metrics", promhttp.Handler())
		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/server", s.serverStatus)
			r.Post("/server/command", s.submitCommand)
			r.Post("/server/{action}", s.serverAction)
			r.Get("/cycle", s.lastCycle)
			r.Get("/jobs", s.recentJobs)
		})
	})
	return r
}

// Wait blocks until background lifecycle actions have returned.
func (s *Server) Wait() { s.actions.Wait() }
