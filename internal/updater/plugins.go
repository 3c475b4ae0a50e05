// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package updater

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/serverpilot/internal/config"
	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/logging"
	"github.com/tomtom215/serverpilot/internal/metrics"
	"github.com/tomtom215/serverpilot/internal/updater/download"
	"github.com/tomtom215/serverpilot/internal/updater/search"
)

// errAllChecksFailed fails a plugin or mod job whose every lookup failed.
var errAllChecksFailed = errors.New("every update check failed")

// checkTally counts the outcome of a plugin or mod job.
type checkTally struct {
	checked int
	failed  int
	updates int
}

// Plugins checks every jar in the plugins directory. A plugin's source is
// its Jenkins project when one is configured, otherwise the marketplaces.
func (u *Updater) Plugins(ctx context.Context, j *jobs.Job) error {
	c := u.cfg.Updaters.Plugins
	if !c.Enabled {
		j.Skip(skipDisabled)
		return nil
	}

	dir := u.cfg.Resolve(c.Dir)
	plugins, errs := DiscoverPlugins(dir)
	for _, err := range errs {
		j.AddWarning("Failed to read plugin: %v", err)
	}
	j.SetMax(int64(len(plugins)))

	coordinator := search.NewCoordinator(
		search.NewSpigetSearcher(u.clients.Spiget, c.SpigetURL),
		search.NewBukkitSearcher(u.clients.Bukkit, c.BukkitURL),
	)
	jenkins := search.NewJenkinsSearcher(u.clients.Jenkins)
	policy := download.ParsePolicy(c.Policy)

	var tally checkTally
	var downloads []pending
	for _, p := range plugins {
		if err := ctx.Err(); err != nil {
			return err
		}
		j.SetStatus("Checking '%s' for updates...", p.Name)
		target, _ := lookupTarget(c.Targets, p.Name)
		if target.Exclude {
			j.Step()
			continue
		}
		tally.checked++

		res, err := u.searchPlugin(ctx, coordinator, jenkins, p, target)
		j.Step()
		if err != nil {
			tally.failed++
			j.AddWarning("%s: update check failed: %v", p.Name, err)
			continue
		}

		switch res.Classification {
		case search.APIError:
			tally.failed++
			j.AddWarning("%s: update check failed: %v", p.Name, res.Err)
			continue
		case search.NotFound:
			j.AddWarning("%s: not found on any source. Set a spigot_id, bukkit_id or jenkins project for it.", p.Name)
			continue
		case search.Ambiguous:
			j.AddWarning("%s: search returned no match with author '%s'. Set its author or an id.", p.Name, p.Author)
			continue
		case search.UpToDate:
			continue
		}

		if target.SpigotID == 0 && res.SpigotID > 0 {
			logging.Ctx(ctx).Info().Str("plugin", p.Name).Int("spigot_id", res.SpigotID).
				Msg("Found plugin by name; pin its spigot_id to skip the search next time")
		}
		tally.updates++
		if target.CustomDownloadURL != "" {
			res.DownloadURL = target.CustomDownloadURL
		}
		if res.Premium && target.CustomDownloadURL == "" {
			j.AddWarning("%s: update %s is a premium resource and must be downloaded manually", p.Name, res.Latest)
			continue
		}

		task := download.NewTask(u.clients.Downloads, p.Name, res.Latest, res.DownloadURL, policy)
		task.IgnoreContentType = target.IgnoreContentType
		task.Destination = p.Path
		downloads = append(downloads, u.startDownload(task, u.pluginInstalled(p.Name, res)))
	}

	installed, dlErrs := u.awaitDownloads(ctx, downloads)
	for _, err := range dlErrs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		j.AddWarning("Download failed: %v", err)
	}
	metrics.UpdatesAvailable.WithLabelValues(JobPlugins).Set(float64(tally.updates - installed))

	j.SetStatus("Checked %d plugins, found %d updates (%d installed)", tally.checked, tally.updates, installed)
	if tally.checked > 0 && tally.failed == tally.checked {
		return errAllChecksFailed
	}
	return nil
}

func (u *Updater) searchPlugin(ctx context.Context, c *search.Coordinator, jenkins *search.JenkinsSearcher, p InstalledPlugin, t config.PluginTarget) (search.Result, error) {
	if t.Jenkins.ProjectURL != "" {
		known, err := u.store.BuildID(stateKeyPluginPrefix + p.Name)
		if err != nil {
			return search.Result{}, fmt.Errorf("read build of %s: %w", p.Name, err)
		}
		artifact := t.Jenkins.ArtifactName
		if artifact == "" {
			artifact = p.Name
		}
		return jenkins.Search(ctx, t.Jenkins.ProjectURL, artifact, known), nil
	}

	author := p.Author
	if t.Author != "" {
		author = t.Author
	}
	return c.Search(ctx, search.Plugin{
		Name:     p.Name,
		Version:  p.Version,
		Author:   author,
		SpigotID: t.SpigotID,
		BukkitID: t.BukkitID,
	}), nil
}

// pluginInstalled records the installed Jenkins build of a plugin.
func (u *Updater) pluginInstalled(name string, res search.Result) func() error {
	return func() error {
		if res.Source != search.SourceJenkins {
			return nil
		}
		return u.store.SetBuildID(stateKeyPluginPrefix+name, res.BuildID)
	}
}
