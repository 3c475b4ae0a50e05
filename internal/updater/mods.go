// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package updater

import (
	"context"
	"path/filepath"

	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/metrics"
	"github.com/tomtom215/serverpilot/internal/updater/download"
	"github.com/tomtom215/serverpilot/internal/updater/search"
)

// Mods checks every Fabric mod in the mods directory against Modrinth. Mod
// jars carry their version in the file name, so an installed update is
// written under the new name and the old jar is removed.
func (u *Updater) Mods(ctx context.Context, j *jobs.Job) error {
	c := u.cfg.Updaters.Mods
	if !c.Enabled {
		j.Skip(skipDisabled)
		return nil
	}

	dir := u.cfg.Resolve(c.Dir)
	mods, errs := DiscoverMods(dir)
	for _, err := range errs {
		j.AddWarning("Failed to read mod: %v", err)
	}
	j.SetMax(int64(len(mods)))

	modrinth := search.NewModrinthSearcher(u.clients.Modrinth, c.ModrinthURL, c.Loader, c.GameVersion)
	policy := download.ParsePolicy(c.Policy)

	var tally checkTally
	var downloads []pending
	for _, m := range mods {
		if err := ctx.Err(); err != nil {
			return err
		}
		j.SetStatus("Checking '%s' for updates...", m.Name)
		target, _ := lookupTarget(c.Targets, m.ID)
		if target.Exclude {
			j.Step()
			continue
		}
		tally.checked++

		project := m.ID
		if target.ModrinthID != "" {
			project = target.ModrinthID
		}
		res := modrinth.ByProject(ctx, project, m.Version)
		j.Step()

		switch res.Classification {
		case search.APIError:
			tally.failed++
			j.AddWarning("%s: update check failed: %v", m.Name, res.Err)
			continue
		case search.NotFound, search.Ambiguous:
			j.AddWarning("%s: no Modrinth version for %s %s. Set its modrinth_id.", m.Name, c.Loader, c.GameVersion)
			continue
		case search.UpToDate:
			continue
		}
		tally.updates++

		task := download.NewTask(u.clients.Downloads, m.ID, res.Latest, res.DownloadURL, policy)
		task.IgnoreContentType = target.IgnoreContentType
		task.Destination = m.Path
		if res.FileName != "" {
			task.Destination = filepath.Join(dir, filepath.Base(res.FileName))
			task.Supersedes = m.Path
		}
		downloads = append(downloads, u.startDownload(task, nil))
	}

	installed, dlErrs := u.awaitDownloads(ctx, downloads)
	for _, err := range dlErrs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		j.AddWarning("Download failed: %v", err)
	}
	metrics.UpdatesAvailable.WithLabelValues(JobMods).Set(float64(tally.updates - installed))

	j.SetStatus("Checked %d mods, found %d updates (%d installed)", tally.checked, tally.updates, installed)
	if tally.checked > 0 && tally.failed == tally.checked {
		return errAllChecksFailed
	}
	return nil
}
