// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/serverpilot/internal/config"
	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/process"
	"github.com/tomtom215/serverpilot/internal/state"
)

const testToken = "s3cret"

type fakeServer struct {
	mu       sync.Mutex
	running  bool
	calls    []string
	commands []string
	block    chan struct{}
}

func (f *fakeServer) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeServer) Status() process.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return process.Status{Running: f.running, PID: 4321}
}

func (f *fakeServer) Start(context.Context) error {
	f.record("start")
	if f.block != nil {
		<-f.block
	}
	return nil
}

func (f *fakeServer) Stop(context.Context) error { f.record("stop"); return nil }
func (f *fakeServer) Kill(context.Context) error { f.record("kill"); return nil }
func (f *fakeServer) Restart(context.Context)    { f.record("restart") }

func (f *fakeServer) SubmitCommand(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, text)
	return nil
}

type fakeOutput []string

func (o fakeOutput) Lines(n int) []string {
	if n > len(o) {
		n = len(o)
	}
	return o[len(o)-n:]
}

type fakeStats struct{}

func (fakeStats) Latest() process.Stats {
	return process.Stats{PID: 4321, CPUPercent: 12.5, RSSBytes: 1 << 30, SampledAt: time.Now()}
}

type fakeCycles struct {
	report *state.CycleReport
	err    error
}

func (c fakeCycles) LastCycleReport() (*state.CycleReport, error) { return c.report, c.err }

func apiConfig() config.APIConfig {
	return config.APIConfig{Enabled: true, Token: testToken, RateLimitReqs: 1000, RateLimitWindow: time.Minute}
}

func newTestAPI(srv *fakeServer, cycles fakeCycles) (*Server, http.Handler) {
	s := New(apiConfig(), Deps{
		Server:  srv,
		Stats:   fakeStats{},
		Output:  fakeOutput{"[12:00:00 INFO]: Starting", "[12:00:05 INFO]: Done (5.0s)!"},
		Cycles:  cycles,
		Version: "1.2.3",
	})
	return s, s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, auth bool) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp APIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s %s: %v\n%s", method, path, err, rec.Body.String())
		}
	}
	return rec, resp
}

func TestHealthNeedsNoToken(t *testing.T) {
	_, h := newTestAPI(&fakeServer{running: true}, fakeCycles{})
	rec, resp := do(t, h, http.MethodGet, "/health", "", false)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	data := resp.Data.(map[string]interface{})
	if data["version"] != "1.2.3" || data["server_running"] != true {
		t.Errorf("health data = %v", data)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	_, h := newTestAPI(&fakeServer{}, fakeCycles{})
	for _, path := range []string{"/api/v1/server", "/api/v1/cycle", "/metrics"} {
		rec, _ := do(t, h, http.MethodGet, path, "", false)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token = %d, want 401", path, rec.Code)
		}
	}
	rec, _ := do(t, h, http.MethodGet, "/metrics", "", true)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "serverpilot_") {
		t.Errorf("GET /metrics = %d", rec.Code)
	}
}

func TestServerStatus(t *testing.T) {
	_, h := newTestAPI(&fakeServer{running: true}, fakeCycles{})

	rec, resp := do(t, h, http.MethodGet, "/api/v1/server?lines=1", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	data := resp.Data.(map[string]interface{})
	if data["running"] != true {
		t.Errorf("running = %v", data["running"])
	}
	if _, ok := data["stats"]; !ok {
		t.Error("stats missing for a running server")
	}
	out := data["output"].([]interface{})
	if len(out) != 1 || !strings.Contains(out[0].(string), "Done") {
		t.Errorf("output = %v", out)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/v1/server?lines=9999", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("lines=9999 status = %d, want 400", rec.Code)
	}
}

func TestServerActions(t *testing.T) {
	tests := []struct {
		name    string
		running bool
		action  string
		want    int
		call    string
	}{
		{"start stopped server", false, "start", http.StatusAccepted, "start"},
		{"start running server", true, "start", http.StatusConflict, ""},
		{"stop running server", true, "stop", http.StatusAccepted, "stop"},
		{"stop stopped server", false, "stop", http.StatusConflict, ""},
		{"kill running server", true, "kill", http.StatusAccepted, "kill"},
		{"restart", true, "restart", http.StatusAccepted, "restart"},
		{"unknown action", true, "explode", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &fakeServer{running: tt.running}
			s, h := newTestAPI(srv, fakeCycles{})
			rec, _ := do(t, h, http.MethodPost, "/api/v1/server/"+tt.action, "", true)
			s.Wait()
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			got := strings.Join(srv.calls, ",")
			if got != tt.call {
				t.Errorf("calls = %q, want %q", got, tt.call)
			}
		})
	}
}

func TestServerActionWhileBusy(t *testing.T) {
	srv := &fakeServer{block: make(chan struct{})}
	s, h := newTestAPI(srv, fakeCycles{})

	if rec, _ := do(t, h, http.MethodPost, "/api/v1/server/start", "", true); rec.Code != http.StatusAccepted {
		t.Fatalf("first start = %d", rec.Code)
	}
	rec, resp := do(t, h, http.MethodPost, "/api/v1/server/restart", "", true)
	if rec.Code != http.StatusConflict || resp.Error == nil || resp.Error.Code != ErrCodeConflict {
		t.Errorf("second action = %d %+v, want 409", rec.Code, resp.Error)
	}
	close(srv.block)
	s.Wait()
}

func TestSubmitCommand(t *testing.T) {
	tests := []struct {
		name    string
		running bool
		body    string
		want    int
	}{
		{"submitted", true, `{"command":"say hello"}`, http.StatusOK},
		{"empty command", true, `{"command":""}`, http.StatusBadRequest},
		{"invalid json", true, `{"command":`, http.StatusBadRequest},
		{"server stopped", false, `{"command":"say hello"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &fakeServer{running: tt.running}
			_, h := newTestAPI(srv, fakeCycles{})
			rec, _ := do(t, h, http.MethodPost, "/api/v1/server/command", tt.body, true)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusOK && (len(srv.commands) != 1 || srv.commands[0] != "say hello") {
				t.Errorf("commands = %v", srv.commands)
			}
			if tt.want != http.StatusOK && len(srv.commands) != 0 {
				t.Errorf("command submitted on %d", tt.want)
			}
		})
	}
}

func TestLastCycle(t *testing.T) {
	t.Run("none yet", func(t *testing.T) {
		_, h := newTestAPI(&fakeServer{}, fakeCycles{})
		if rec, _ := do(t, h, http.MethodGet, "/api/v1/cycle", "", true); rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
	t.Run("store error", func(t *testing.T) {
		_, h := newTestAPI(&fakeServer{}, fakeCycles{err: errors.New("badger closed")})
		rec, resp := do(t, h, http.MethodGet, "/api/v1/cycle", "", true)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
		if resp.Error != nil && strings.Contains(resp.Error.Message, "badger") {
			t.Error("internal error text leaked to the client")
		}
	})
	t.Run("report", func(t *testing.T) {
		report := &state.CycleReport{ID: "c1", Jobs: []state.JobResult{{Name: "BackupTask", Outcome: "success"}}}
		_, h := newTestAPI(&fakeServer{}, fakeCycles{report: report})
		rec, resp := do(t, h, http.MethodGet, "/api/v1/cycle", "", true)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if id := resp.Data.(map[string]interface{})["id"]; id != "c1" {
			t.Errorf("id = %v", id)
		}
	})
}

type fakeJobs []jobs.Event

func (f fakeJobs) Recent(n int) []jobs.Event {
	if n > len(f) {
		n = len(f)
	}
	return f[:n]
}

func TestRecentJobs(t *testing.T) {
	history := fakeJobs{
		{Origin: jobs.OriginUpdateCheck, Name: "PluginsUpdater", Outcome: "success"},
		{Origin: jobs.OriginCycle, CycleID: "c1", Name: "BackupTask", Outcome: "failed", Error: "disk full"},
	}
	s := New(apiConfig(), Deps{Server: &fakeServer{}, Cycles: fakeCycles{}, Jobs: history})
	h := s.Handler()

	rec, resp := do(t, h, http.MethodGet, "/api/v1/jobs?limit=1", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	list, ok := resp.Data.([]interface{})
	if !ok || len(list) != 1 {
		t.Fatalf("data = %#v", resp.Data)
	}
	if name := list[0].(map[string]interface{})["name"]; name != "PluginsUpdater" {
		t.Errorf("name = %v", name)
	}

	for _, q := range []string{"0", "101", "x"} {
		if rec, _ := do(t, h, http.MethodGet, "/api/v1/jobs?limit="+q, "", true); rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", q, rec.Code)
		}
	}
	if rec, _ := do(t, h, http.MethodGet, "/api/v1/jobs", "", false); rec.Code != http.StatusUnauthorized {
		t.Errorf("without token: status = %d, want 401", rec.Code)
	}

	// Without a history the list is empty, not null.
	_, h = newTestAPI(&fakeServer{}, fakeCycles{})
	rec, resp = do(t, h, http.MethodGet, "/api/v1/jobs", "", true)
	if list, ok := resp.Data.([]interface{}); rec.Code != http.StatusOK || !ok || len(list) != 0 {
		t.Errorf("status = %d, data = %#v", rec.Code, resp.Data)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := apiConfig()
	cfg.RateLimitReqs = 2
	h := New(cfg, Deps{Server: &fakeServer{}, Cycles: fakeCycles{}}).Handler()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec, _ := do(t, h, http.MethodGet, "/health", "", false)
		codes = append(codes, rec.Code)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want the third request limited", codes)
	}
}

func TestUnknownRoute(t *testing.T) {
	_, h := newTestAPI(&fakeServer{}, fakeCycles{})
	rec, resp := do(t, h, http.MethodGet, "/nope", "", false)
	if rec.Code != http.StatusNotFound || resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("status = %d, error = %+v", rec.Code, resp.Error)
	}
}
