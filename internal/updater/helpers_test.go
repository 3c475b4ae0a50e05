// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package updater

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/serverpilot/internal/config"
	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/state"
)

// upstream fakes every update source on one httptest server.
type upstream struct {
	*httptest.Server
	mux *http.ServeMux

	mu   sync.Mutex
	hits map[string]int
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{mux: http.NewServeMux(), hits: map[string]int{}}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.hits[r.URL.Path]++
		u.mu.Unlock()
		u.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) json(path, body string) {
	u.mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func (u *upstream) file(path, contentType string, body []byte) {
	u.mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	})
}

func (u *upstream) status(path string, code int) {
	u.mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	})
}

func (u *upstream) hitCount(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

// testConfig returns a config with every updater disabled and every source
// pointing at srv.
func testConfig(t *testing.T, srv string) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{WorkDir: t.TempDir()},
		Updaters: config.UpdatersConfig{
			Java:    config.JavaUpdaterConfig{Policy: "automatic", FeatureVersion: 21, APIURL: srv, InstallDir: "serverpilot/java"},
			Server:  config.ServerUpdaterConfig{Policy: "automatic", Software: "paper", Version: "1.21.1", JarPath: "server.jar", PaperAPIURL: srv},
			Plugins: config.PluginsUpdaterConfig{Policy: "automatic", Dir: "plugins", SpigetURL: srv, BukkitURL: srv, Targets: map[string]config.PluginTarget{}},
			Mods:    config.ModsUpdaterConfig{Policy: "automatic", Dir: "mods", Loader: "fabric", ModrinthURL: srv, Targets: map[string]config.ModTarget{}},
		},
		Remote: config.RemoteConfig{
			UserAgent: config.DefaultUserAgent, Timeout: 5 * time.Second,
			RequestsPerSecond: 100, Burst: 10, MaxRetries: 0,
		},
	}
}

func testStore(t *testing.T) *state.Store {
	t.Helper()
	s, err := state.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// runJob runs fn as name through a fresh orchestrator and returns the report.
func runJob(t *testing.T, cfg *config.Config, store *state.Store, name string, pick func(*Updater) jobs.WorkFunc) jobs.Report {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	o := jobs.NewOrchestrator(ctx)
	u := New(cfg, store, NewClients(cfg.Remote), o)
	o.Start(name, pick(u))
	if err := o.WaitAll(ctx); err != nil {
		t.Fatalf("WaitAll: %v", err)
	}
	o.Close()
	return o.Report()
}

func mustGet(t *testing.T, r jobs.Report, name string) jobs.Snapshot {
	t.Helper()
	s, ok := r.Get(name)
	if !ok {
		t.Fatalf("job %q not in report", name)
	}
	return s
}

// writeJar creates a zip archive at path with the given entries.
func writeJar(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
}

// tarGz builds a .tar.gz holding the given regular files.
func tarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, body := range files {
		hdr := &tar.Header{Name: name, Mode: 0o755, Size: int64(len(body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test file
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
