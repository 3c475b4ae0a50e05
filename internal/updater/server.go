// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package updater

import (
	"context"
	"fmt"

	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/metrics"
	"github.com/tomtom215/serverpilot/internal/updater/download"
	"github.com/tomtom215/serverpilot/internal/updater/search"
)

// Server keeps the server jar current, either from the Paper API or from a
// Jenkins project. Builds are tracked by number in the state store.
func (u *Updater) Server(ctx context.Context, j *jobs.Job) error {
	c := u.cfg.Updaters.Server
	if !c.Enabled {
		j.Skip(skipDisabled)
		return nil
	}

	j.SetStatus("Checking for %s updates...", c.Software)
	res, err := u.searchServer(ctx)
	if err != nil {
		return err
	}
	switch res.Classification {
	case search.APIError:
		return fmt.Errorf("search %s: %w", c.Software, res.Err)
	case search.NotFound, search.Ambiguous:
		j.SetStatus("No %s build found for version '%s'", c.Software, c.Version)
		j.Finish(false)
		return nil
	case search.UpToDate:
		metrics.UpdatesAvailable.WithLabelValues(JobServer).Set(0)
		j.SetStatus("Server is on the latest build (%s)", res.Latest)
		return nil
	}
	metrics.UpdatesAvailable.WithLabelValues(JobServer).Set(1)

	task := download.NewTask(u.clients.Downloads, c.Software, res.Latest, res.DownloadURL, download.ParsePolicy(c.Policy))
	task.Destination = u.cfg.Resolve(c.JarPath)

	p := u.startDownload(task, func() error {
		metrics.UpdatesAvailable.WithLabelValues(JobServer).Set(0)
		return u.store.SetBuildID(stateKeyServer, res.BuildID)
	})
	n, errs := u.awaitDownloads(ctx, []pending{p})
	if err := downloadErr(errs); err != nil {
		return err
	}
	if n == 0 {
		j.SetStatus("Update found for %s (build %s)", c.Software, res.Latest)
		return nil
	}
	j.SetStatus("Installed %s build %s", c.Software, res.Latest)
	return nil
}

func (u *Updater) searchServer(ctx context.Context) (search.Result, error) {
	c := u.cfg.Updaters.Server
	known, err := u.store.BuildID(stateKeyServer)
	if err != nil {
		return search.Result{}, fmt.Errorf("read installed server build: %w", err)
	}
	if c.Software == "jenkins" {
		return search.NewJenkinsSearcher(u.clients.Jenkins).Search(ctx, c.Jenkins.ProjectURL, c.Jenkins.ArtifactName, known), nil
	}
	return search.NewPaperSearcher(u.clients.Paper, c.PaperAPIURL, "paper").Search(ctx, c.Version, known), nil
}
