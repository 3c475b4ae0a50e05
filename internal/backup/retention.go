// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package backup

import (
	"context"
	"os"
	"time"

	"github.com/tomtom215/serverpilot/internal/logging"
)

// shouldDeleteByAge returns true if backup should be deleted due to age
func shouldDeleteByAge(b *Backup, policy RetentionPolicy, now time.Time) bool {
	if policy.MaxAgeDays <= 0 {
		return false
	}
	cutoff := now.AddDate(0, 0, -policy.MaxAgeDays)
	return b.CreatedAt.Before(cutoff)
}

// collectBackupsToDelete applies the policy to backups sorted newest first.
// The newest backup is always kept.
func collectBackupsToDelete(backups []*Backup, policy RetentionPolicy, now time.Time) []*Backup {
	var toDelete []*Backup
	kept := 0
	for i, b := range backups {
		switch {
		case i == 0:
			kept++
		case shouldDeleteByAge(b, policy, now):
			toDelete = append(toDelete, b)
		case policy.MaxCount > 0 && kept >= policy.MaxCount:
			toDelete = append(toDelete, b)
		default:
			kept++
		}
	}
	return toDelete
}

// ApplyRetention deletes the backups the policy no longer keeps and returns
// how many were deleted and the bytes freed.
func (m *Manager) ApplyRetention(ctx context.Context) (deletedCount int, deletedSize int64, err error) {
	backups, err := m.List()
	if err != nil {
		return 0, 0, err
	}

	for _, b := range collectBackupsToDelete(backups, m.retention, m.now()) {
		if err := os.Remove(b.FilePath); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("file", b.FileName).Msg("Failed to delete backup")
			continue
		}
		deletedCount++
		deletedSize += b.SizeBytes
	}

	if deletedCount > 0 {
		logging.Ctx(ctx).Info().
			Int("deleted_count", deletedCount).
			Int64("freed_bytes", deletedSize).
			Msg("Retention policy applied")
	}
	return deletedCount, deletedSize, nil
}
