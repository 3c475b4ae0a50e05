// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package jobs

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDisplay_PrintSummary(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	d := NewDisplay(&buf, DisplayBatch, 0)
	d.PrintSummary(Report{Jobs: []Snapshot{
		{Name: "BackupTask", Status: "Backup created", Outcome: Success},
		{Name: "PluginsUpdater", Status: "Checked 3 plugins", Outcome: Failed, Err: errors.New("all failed"), Warnings: []string{"Essentials: not found"}},
	}})

	out := buf.String()
	for _, want := range []string{
		"Finished 2 job(s): 1 successful, 0 unsuccessful, 0 skipped, 1 failed.",
		"[OK] [BackupTask] Backup created",
		"[!!] [PluginsUpdater] Checked 3 plugins",
		"warning: Essentials: not found",
		"error: all failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestDisplay_LiveStopsWhenAllFinished(t *testing.T) {
	color.NoColor = true

	o := NewOrchestrator(context.Background())
	release := make(chan struct{})
	o.Start("GeneralTasks", func(_ context.Context, j *Job) error {
		j.SetStatus("Pruning downloads")
		<-release
		j.SetStatus("Done")
		return nil
	})

	out := &syncBuffer{}
	started := make(chan struct{})
	d := NewDisplay(out, DisplayLive, 5*time.Millisecond)
	stopped := d.Live(context.Background(), o, started)

	close(started)
	time.Sleep(30 * time.Millisecond)
	select {
	case <-stopped:
		t.Fatal("live display stopped while a job was running")
	default:
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("live display did not stop")
	}

	if !strings.Contains(out.String(), "[OK] [GeneralTasks] Done") {
		t.Errorf("live output missing final line:\n%s", out.String())
	}
}
