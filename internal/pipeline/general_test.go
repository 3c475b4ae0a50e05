// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/tomtom215/serverpilot/internal/jobs"
)

func touch(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	mod := time.Now().Add(-age)
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestCheckPermissions(t *testing.T) {
	dir := t.TempDir()
	if err := CheckPermissions(dir); err != nil {
		t.Fatalf("CheckPermissions: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}

	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	ro := t.TempDir()
	if err := os.Chmod(ro, 0o500); err != nil { //nolint:gosec // test directory
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(ro, 0o700) }) //nolint:gosec // test directory
	if err := CheckPermissions(ro); err == nil {
		t.Error("CheckPermissions succeeded on a read-only directory")
	}
}

func TestPruneOlderThan(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(dir, "old.jar"), 10*24*time.Hour)
	touch(t, filepath.Join(dir, "new.jar"), time.Hour)
	touch(t, filepath.Join(dir, activeLog), 30*24*time.Hour)
	touch(t, filepath.Join(dir, "sub", "old.jar"), 10*24*time.Hour)

	n, err := pruneOlderThan(dir, 7, now)
	if err != nil {
		t.Fatalf("pruneOlderThan: %v", err)
	}
	if n != 1 {
		t.Errorf("removed = %d, want 1", n)
	}
	if exists(filepath.Join(dir, "old.jar")) {
		t.Error("old.jar not removed")
	}
	for _, keep := range []string{"new.jar", activeLog, filepath.Join("sub", "old.jar")} {
		if !exists(filepath.Join(dir, keep)) {
			t.Errorf("%s removed", keep)
		}
	}

	if n, err := pruneOlderThan(dir, 0, now); n != 0 || err != nil {
		t.Errorf("disabled prune = (%d, %v)", n, err)
	}
	if n, err := pruneOlderThan(filepath.Join(dir, "missing"), 7, now); n != 0 || err != nil {
		t.Errorf("missing dir = (%d, %v)", n, err)
	}
}

func TestGeneralTasksJob(t *testing.T) {
	cfg := testConfig(t)
	touch(t, filepath.Join(cfg.DownloadsDir(), "Essentials-[2.20].jar"), 30*24*time.Hour)
	touch(t, filepath.Join(cfg.LogsDir(), "latest-2026-01-01.log.gz"), 30*24*time.Hour)

	ctx := context.Background()
	o := jobs.NewOrchestrator(ctx)
	o.Start(JobGeneral, GeneralTasks(cfg))
	if err := o.WaitAll(ctx); err != nil {
		t.Fatal(err)
	}
	s, _ := o.Report().Get(JobGeneral)
	if s.Outcome != jobs.Success {
		t.Fatalf("outcome = %v (%v)", s.Outcome, s.Err)
	}
	if s.Status != "Permissions OK, removed 1 stale downloads and 1 old logs" {
		t.Errorf("status = %q", s.Status)
	}

	cfg.Tasks.General.Enabled = false
	o = jobs.NewOrchestrator(ctx)
	o.Start(JobGeneral, GeneralTasks(cfg))
	_ = o.WaitAll(ctx)
	if s, _ := o.Report().Get(JobGeneral); s.Outcome != jobs.Skipped {
		t.Errorf("disabled outcome = %v, want skipped", s.Outcome)
	}
}
