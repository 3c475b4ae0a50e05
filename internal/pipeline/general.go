// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/tomtom215/serverpilot/internal/config"
	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/logging"
)

// JobGeneral is the housekeeping job's name.
const JobGeneral = "GeneralTasks"

// activeLog is never pruned; lumberjack keeps writing to it.
const activeLog = "latest.log"

// ErrPermission is returned when the working directory is not writable and
// readable.
var ErrPermission = errors.New("read/write permission check failed")

// CheckPermissions writes, reads back and removes a probe file in dir.
func CheckPermissions(dir string) error {
	probe := []byte("serverpilot permission check\n")
	f, err := os.CreateTemp(dir, ".serverpilot-check-*")
	if err != nil {
		return fmt.Errorf("%w: create in %s: %w", ErrPermission, dir, err)
	}
	name := f.Name()
	defer func() { _ = os.Remove(name) }()

	if _, err := f.Write(probe); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: write %s: %w", ErrPermission, name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrPermission, name, err)
	}
	got, err := os.ReadFile(name) //nolint:gosec // our own probe file
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrPermission, name, err)
	}
	if !bytes.Equal(got, probe) {
		return fmt.Errorf("%w: %s reads back different content", ErrPermission, name)
	}
	return nil
}

// GeneralTasks returns the housekeeping job: a permission check of the
// server directory and pruning of stale downloads and rotated logs.
func GeneralTasks(cfg *config.Config) jobs.WorkFunc {
	return func(ctx context.Context, j *jobs.Job) error {
		c := cfg.Tasks.General
		if !c.Enabled {
			j.Skip("Skipped. Disabled by user.")
			return nil
		}

		j.SetStatus("Checking read/write permissions...")
		if err := CheckPermissions(cfg.Server.WorkDir); err != nil {
			return err
		}

		now := time.Now()
		j.SetStatus("Removing stale files...")
		downloads, derr := pruneOlderThan(cfg.DownloadsDir(), c.PruneDownloadsDays, now)
		logs, lerr := pruneOlderThan(cfg.LogsDir(), c.PruneLogsDays, now)
		for _, err := range []error{derr, lerr} {
			if merr, ok := err.(*multierror.Error); ok { //nolint:errorlint // ErrorOrNil returns the concrete type
				for _, e := range merr.Errors {
					j.AddWarning("%v", e)
				}
			}
		}
		if downloads+logs > 0 {
			logging.Ctx(ctx).Info().Int("downloads", downloads).Int("logs", logs).Msg("Pruned stale files")
		}
		j.SetStatus("Permissions OK, removed %d stale downloads and %d old logs", downloads, logs)
		return nil
	}
}

// pruneOlderThan removes regular files directly inside dir that were last
// modified more than days ago. days <= 0 disables pruning.
func pruneOlderThan(dir string, days int, now time.Time) (int, error) {
	if days <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, multierror.Append(nil, err)
	}

	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	var result *multierror.Error
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || e.Name() == activeLog {
			continue
		}
		info, err := e.Info()
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		removed++
	}
	return removed, result.ErrorOrNil()
}
