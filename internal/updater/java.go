// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package updater

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/logging"
	"github.com/tomtom215/serverpilot/internal/metrics"
	"github.com/tomtom215/serverpilot/internal/updater/download"
	"github.com/tomtom215/serverpilot/internal/updater/search"
)

// Java keeps a Temurin JDK of the configured feature version under the
// install directory. Each release is extracted next to the previous ones;
// older releases are removed once the new one is in place.
func (u *Updater) Java(ctx context.Context, j *jobs.Job) error {
	c := u.cfg.Updaters.Java
	if !c.Enabled {
		j.Skip(skipDisabled)
		return nil
	}

	installed, err := u.store.InstalledVersion(stateKeyJava)
	if err != nil {
		return fmt.Errorf("read installed java release: %w", err)
	}

	j.SetStatus("Checking for Java %d updates...", c.FeatureVersion)
	res := search.NewAdoptiumSearcher(u.clients.Adoptium, c.APIURL).Search(ctx, c.FeatureVersion, installed)
	switch res.Classification {
	case search.APIError:
		return fmt.Errorf("search java %d: %w", c.FeatureVersion, res.Err)
	case search.NotFound:
		j.SetStatus("No Java %d release found for this platform", c.FeatureVersion)
		j.Finish(false)
		return nil
	case search.UpToDate:
		metrics.UpdatesAvailable.WithLabelValues(JobJava).Set(0)
		j.SetStatus("Java is on the latest version (%s)", res.Latest)
		return nil
	}
	metrics.UpdatesAvailable.WithLabelValues(JobJava).Set(1)

	installDir := u.cfg.Resolve(c.InstallDir)
	task := download.NewTask(u.clients.Downloads, "java", res.Latest, res.DownloadURL, download.ParsePolicy(c.Policy))
	task.Ext = res.DownloadType
	// Adoptium serves archives as application/x-gzip or application/zip.
	task.IgnoreContentType = true
	task.Install = func(_ context.Context, staged string) error {
		return installJava(staged, installDir, installed)
	}

	p := u.startDownload(task, func() error {
		metrics.UpdatesAvailable.WithLabelValues(JobJava).Set(0)
		return u.store.SetInstalledVersion(stateKeyJava, res.Latest)
	})
	n, errs := u.awaitDownloads(ctx, []pending{p})
	if err := downloadErr(errs); err != nil {
		return err
	}

	if n == 0 {
		j.SetStatus("Update found for Java (%s -> %s)", displayVersion(installed), res.Latest)
		return nil
	}
	logging.Ctx(ctx).Info().Str("release", res.Latest).Str("dir", installDir).Msg("Installed Java runtime")
	j.SetStatus("Installed Java %s to %s", res.Latest, installDir)
	return nil
}

// installJava extracts the archive and removes the previous release's
// directory when the archive created a different one.
func installJava(staged, installDir, previous string) error {
	roots, err := extractArchive(staged, installDir)
	if err != nil {
		return fmt.Errorf("extract %s: %w", filepath.Base(staged), err)
	}
	if previous == "" {
		return nil
	}
	for _, r := range roots {
		if r == previous {
			return nil
		}
	}
	old, err := safeJoin(installDir, previous)
	if err != nil {
		return nil //nolint:nilerr // a bogus stored release name is not worth failing the install
	}
	if err := os.RemoveAll(old); err != nil {
		logging.Warn().Err(err).Str("dir", old).Msg("Failed to remove previous Java release")
	}
	return nil
}

func displayVersion(v string) string {
	if v == "" {
		return "none"
	}
	return v
}
