// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package backup

import (
	"context"
	"time"

	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/metrics"
)

// JobName is the name of the backup job in the cycle.
const JobName = "BackupTask"

// Run is the BackupTask job body.
func (m *Manager) Run(ctx context.Context, j *jobs.Job) error {
	if !m.enabled {
		j.Skip("Skipped. Disabled by user.")
		return nil
	}

	j.SetStatus("Creating backup of %s...", m.sourceDir)
	start := time.Now()
	backup, err := m.Create(ctx, func(done, total int) {
		j.SetMax(int64(total))
		j.SetNow(int64(done))
	})
	if err != nil {
		metrics.RecordBackup(time.Since(start), 0, err)
		return err
	}
	metrics.RecordBackup(time.Since(start), backup.SizeBytes, nil)

	deleted, _, err := m.ApplyRetention(ctx)
	if err != nil {
		j.AddWarning("Retention failed: %v", err)
	}
	j.SetStatus("Created backup %s (%d files, %d MB), removed %d old backups",
		backup.FileName, backup.FileCount, backup.SizeBytes>>20, deleted)
	return nil
}
