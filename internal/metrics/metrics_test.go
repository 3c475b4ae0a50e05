// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetServerRunning(t *testing.T) {
	SetServerRunning(true)
	if got := testutil.ToFloat64(ServerRunning); got != 1 {
		t.Errorf("ServerRunning = %v, want 1", got)
	}
	SetServerRunning(false)
	if got := testutil.ToFloat64(ServerRunning); got != 0 {
		t.Errorf("ServerRunning = %v, want 0", got)
	}
}

func TestRecordServerCommand(t *testing.T) {
	sent := testutil.ToFloat64(ServerCommandsTotal.WithLabelValues("sent"))
	dropped := testutil.ToFloat64(ServerCommandsTotal.WithLabelValues("dropped"))

	RecordServerCommand(true)
	RecordServerCommand(false)
	RecordServerCommand(false)

	if got := testutil.ToFloat64(ServerCommandsTotal.WithLabelValues("sent")) - sent; got != 1 {
		t.Errorf("sent delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ServerCommandsTotal.WithLabelValues("dropped")) - dropped; got != 2 {
		t.Errorf("dropped delta = %v, want 2", got)
	}
}

func TestRecordCycle(t *testing.T) {
	tests := []struct {
		name     string
		cooldown bool
		label    string
	}{
		{"cooldown active", true, "active"},
		{"cooldown inactive", false, "inactive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(CyclesTotal.WithLabelValues(tt.label))
			RecordCycle(3*time.Second, tt.cooldown)
			if got := testutil.ToFloat64(CyclesTotal.WithLabelValues(tt.label)) - before; got != 1 {
				t.Errorf("CyclesTotal{%s} delta = %v, want 1", tt.label, got)
			}
			if testutil.ToFloat64(CycleLastTimestamp) <= 0 {
				t.Error("CycleLastTimestamp should be set")
			}
		})
	}
}

func TestRecordJob(t *testing.T) {
	before := testutil.ToFloat64(JobOutcomesTotal.WithLabelValues("BackupTask", "success"))
	RecordJob("BackupTask", "success", time.Second)
	if got := testutil.ToFloat64(JobOutcomesTotal.WithLabelValues("BackupTask", "success")) - before; got != 1 {
		t.Errorf("JobOutcomesTotal delta = %v, want 1", got)
	}
}

func TestRecordDownload(t *testing.T) {
	bytesBefore := testutil.ToFloat64(DownloadBytesTotal)
	RecordDownload("installed", 2048)
	RecordDownload("notified", 0)
	if got := testutil.ToFloat64(DownloadBytesTotal) - bytesBefore; got != 2048 {
		t.Errorf("DownloadBytesTotal delta = %v, want 2048", got)
	}
}

func TestRecordBackup(t *testing.T) {
	failBefore := testutil.ToFloat64(BackupsTotal.WithLabelValues("failure"))
	RecordBackup(time.Second, 0, errors.New("disk full"))
	if got := testutil.ToFloat64(BackupsTotal.WithLabelValues("failure")) - failBefore; got != 1 {
		t.Errorf("failure delta = %v, want 1", got)
	}

	RecordBackup(time.Second, 4096, nil)
	if got := testutil.ToFloat64(BackupSizeBytes); got != 4096 {
		t.Errorf("BackupSizeBytes = %v, want 4096", got)
	}
}

func TestRecordProcessStats(t *testing.T) {
	RecordProcessStats(12.5, 1<<20)
	if got := testutil.ToFloat64(ServerCPUPercent); got != 12.5 {
		t.Errorf("ServerCPUPercent = %v", got)
	}
	if got := testutil.ToFloat64(ServerMemoryRSSBytes); got != 1<<20 {
		t.Errorf("ServerMemoryRSSBytes = %v", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/health", "200"))
	RecordAPIRequest("GET", "/health", 200, 5*time.Millisecond)
	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/health", "200")) - before; got != 1 {
		t.Errorf("APIRequestsTotal delta = %v, want 1", got)
	}
}

// TestMetricGathering tests that metrics can be gathered using testutil
func TestMetricGathering(t *testing.T) {
	RecordSearch("jenkins", "UP_TO_DATE", 10*time.Millisecond)
	CircuitBreakerState.WithLabelValues("spiget").Set(0)

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Logf("Lint errors (may be expected): %v", err)
	}
	for _, p := range problems {
		t.Logf("Metric lint problem in %s: %s", p.Metric, p.Text)
	}
}
