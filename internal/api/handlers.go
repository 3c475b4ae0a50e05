// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/logging"
	"github.com/tomtom215/serverpilot/internal/middleware"
	"github.com/tomtom215/serverpilot/internal/process"
	"github.com/tomtom215/serverpilot/internal/validation"
)

const (
	defaultOutputLines = 50
	maxOutputLines     = 500
	maxCommandBody     = 4 << 10
	defaultJobEvents   = 20
	maxJobEvents       = 100
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	ServerRunning bool    `json:"server_running"`
}

// ServerResponse is the body of GET /api/v1/server.
type ServerResponse struct {
	process.Status
	Stats  *process.Stats `json:"stats,omitempty"`
	Output []string       `json:"output"`
}

// ActionResponse acknowledges a lifecycle action.
type ActionResponse struct {
	Action   string `json:"action"`
	Accepted bool   `json:"accepted"`
}

// CommandRequest is the body of POST /api/v1/server/command.
type CommandRequest struct {
	Command string `json:"command" validate:"required,max=1024"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(HealthResponse{
		Status:        "ok",
		Version:       s.deps.Version,
		UptimeSeconds: time.Since(s.started).Seconds(),
		ServerRunning: s.deps.Server.Status().Running,
	})
}

func (s *Server) serverStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	lines := defaultOutputLines
	if v := r.URL.Query().Get("lines"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxOutputLines {
			rw.BadRequest("lines must be between 0 and " + strconv.Itoa(maxOutputLines))
			return
		}
		lines = n
	}

	resp := ServerResponse{Status: s.deps.Server.Status(), Output: []string{}}
	if s.deps.Stats != nil && resp.Running {
		if st := s.deps.Stats.Latest(); !st.SampledAt.IsZero() {
			resp.Stats = &st
		}
	}
	if s.deps.Output != nil && lines > 0 {
		resp.Output = s.deps.Output.Lines(lines)
	}
	rw.Success(resp)
}

// serverAction starts a lifecycle action in the background. Stop and kill
// block for minutes, start runs the maintenance cycle first.
func (s *Server) serverAction(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	action := chi.URLParam(r, "action")

	run, err := s.action(action)
	if err != nil {
		rw.Conflict(err.Error())
		return
	}
	if run == nil {
		rw.BadRequest("Unknown action '" + action + "', expected start, stop, restart or kill")
		return
	}
	if !s.busy.CompareAndSwap(false, true) {
		rw.Conflict("Another server action is still in progress")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	log := logging.With().Str("action", action).Str("request_id", middleware.GetRequestID(r.Context())).Logger()
	s.actions.Add(1)
	go func() {
		defer s.actions.Done()
		defer s.busy.Store(false)
		log.Info().Msg("Running server action requested through the API")
		if err := run(ctx); err != nil {
			log.Error().Err(err).Msg("Server action failed")
		}
	}()
	rw.Accepted(ActionResponse{Action: action, Accepted: true})
}

var (
	errAlreadyRunning = errors.New("the server is already running")
	errNotRunning     = errors.New("the server is not running")
)

// action returns the work of a lifecycle action, nil for an unknown one,
// or an error when the action does not fit the current state.
func (s *Server) action(name string) (func(context.Context) error, error) {
	srv := s.deps.Server
	running := srv.Status().Running
	switch name {
	case "start":
		if running {
			return nil, errAlreadyRunning
		}
		return srv.Start, nil
	case "stop":
		if !running {
			return nil, errNotRunning
		}
		return srv.Stop, nil
	case "kill":
		if !running {
			return nil, errNotRunning
		}
		return srv.Kill, nil
	case "restart":
		return func(ctx context.Context) error {
			srv.Restart(ctx)
			return nil
		}, nil
	}
	return nil, nil
}

func (s *Server) submitCommand(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody)).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON body")
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if !s.deps.Server.Status().Running {
		rw.Conflict(errNotRunning.Error())
		return
	}
	if err := s.deps.Server.SubmitCommand(req.Command); err != nil {
		rw.InternalError("Failed to submit command", err)
		return
	}
	rw.Success(map[string]string{"submitted": req.Command})
}

func (s *Server) lastCycle(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	report, err := s.deps.Cycles.LastCycleReport()
	if err != nil {
		rw.InternalError("Failed to load cycle report", err)
		return
	}
	if report == nil {
		rw.NotFound("No maintenance cycle recorded yet")
		return
	}
	rw.Success(report)
}

// recentJobs lists finished jobs of cycles and update checks, newest first.
func (s *Server) recentJobs(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit := defaultJobEvents
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxJobEvents {
			rw.BadRequest("limit must be between 1 and " + strconv.Itoa(maxJobEvents))
			return
		}
		limit = n
	}

	events := []jobs.Event{}
	if s.deps.Jobs != nil {
		events = append(events, s.deps.Jobs.Recent(limit)...)
	}
	rw.Success(events)
}
