// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package state

import (
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLastCycle_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	got, err := s.LastCycle()
	if err != nil {
		t.Fatalf("LastCycle() error = %v", err)
	}
	if got != "" {
		t.Errorf("LastCycle() on empty store = %q, want empty", got)
	}

	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)
	s.Lock()
	err = s.SetLastCycle(ts)
	s.Unlock()
	if err != nil {
		t.Fatalf("SetLastCycle() error = %v", err)
	}

	got, err = s.LastCycle()
	if err != nil {
		t.Fatalf("LastCycle() error = %v", err)
	}
	if got != "04/03/2026 05:06:07" {
		t.Errorf("LastCycle() = %q, want 04/03/2026 05:06:07", got)
	}
}

func TestBuildIDAndVersion(t *testing.T) {
	s := newTestStore(t)

	id, err := s.BuildID("EssentialsX")
	if err != nil || id != 0 {
		t.Fatalf("BuildID() = %d, %v; want 0, nil", id, err)
	}
	if err := s.SetBuildID("EssentialsX", 1432); err != nil {
		t.Fatal(err)
	}
	if id, _ = s.BuildID("EssentialsX"); id != 1432 {
		t.Errorf("BuildID() = %d, want 1432", id)
	}

	if err := s.SetInstalledVersion("java", "jdk-21.0.4+7"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.InstalledVersion("java"); v != "jdk-21.0.4+7" {
		t.Errorf("InstalledVersion() = %q", v)
	}
	if v, _ := s.InstalledVersion("unknown"); v != "" {
		t.Errorf("InstalledVersion(unknown) = %q, want empty", v)
	}
}

func TestCycleReport(t *testing.T) {
	s := newTestStore(t)

	r, err := s.LastCycleReport()
	if err != nil || r != nil {
		t.Fatalf("LastCycleReport() = %v, %v; want nil, nil", r, err)
	}

	in := &CycleReport{
		ID:             "c1",
		StartedAt:      time.Now().UTC().Truncate(time.Second),
		CooldownActive: true,
		Jobs: []JobResult{
			{Name: "BackupTask", Outcome: "success", Status: "Backup created"},
			{Name: "PluginsUpdater", Outcome: "failed", Warnings: []string{"x"}},
		},
	}
	if err := s.SaveCycleReport(in); err != nil {
		t.Fatal(err)
	}
	out, err := s.LastCycleReport()
	if err != nil {
		t.Fatal(err)
	}
	if out.ID != "c1" || !out.CooldownActive || len(out.Jobs) != 2 || out.Jobs[1].Warnings[0] != "x" {
		t.Errorf("LastCycleReport() = %+v", out)
	}
}

func TestOpenOnDisk_Persists(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.SetBuildID("server", 7); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = s.Close() }()
	if id, _ := s.BuildID("server"); id != 7 {
		t.Errorf("BuildID after reopen = %d, want 7", id)
	}
}

func TestClosedStore(t *testing.T) {
	s, err := OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := s.LastCycle(); !errors.Is(err, ErrClosed) {
		t.Errorf("LastCycle() after close error = %v, want ErrClosed", err)
	}
}
