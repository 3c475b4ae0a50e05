// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package selfupdate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/tomtom215/serverpilot/internal/config"
	"github.com/tomtom215/serverpilot/internal/jobs"
	"github.com/tomtom215/serverpilot/internal/logging"
	"github.com/tomtom215/serverpilot/internal/metrics"
	"github.com/tomtom215/serverpilot/internal/updater"
	"github.com/tomtom215/serverpilot/internal/updater/download"
	"github.com/tomtom215/serverpilot/internal/updater/search"
)

// JobName is the self-update job's name in the cycle report.
const JobName = "SelfUpdater"

// Updater is the self-update job.
type Updater struct {
	cfg          config.SelfUpdateConfig
	downloadsDir string
	version      string

	github    *search.GitHubSearcher
	downloads download.Opener
	starter   updater.Starter

	exe        string
	args       []string
	launch     Launcher
	onRelaunch func()
}

// NewUpdater creates the job for the agent running as version. onRelaunch is
// called after the staged copy was launched; it must make the agent exit.
func NewUpdater(cfg *config.Config, clients *updater.Clients, starter updater.Starter, version string, onRelaunch func()) *Updater {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	return &Updater{
		cfg:          cfg.SelfUpdate,
		downloadsDir: cfg.DownloadsDir(),
		version:      version,
		github:       search.NewGitHubSearcher(clients.GitHub, cfg.SelfUpdate.APIURL),
		downloads:    clients.Downloads,
		starter:      starter,
		exe:          exe,
		args:         os.Args[1:],
		launch:       launchDetached,
		onRelaunch:   onRelaunch,
	}
}

// Run is the job body.
func (u *Updater) Run(ctx context.Context, j *jobs.Job) error {
	if !u.cfg.Enabled {
		j.Skip("Skipped. Disabled by user.")
		return nil
	}
	if u.version == "" || u.version == "dev" {
		j.Skip("Skipped. Development builds are not updated.")
		return nil
	}

	j.SetStatus("Checking for ServerPilot updates...")
	res := u.github.LatestRelease(ctx, u.cfg.Repository, u.cfg.AssetName, u.version)
	switch res.Classification {
	case search.APIError:
		return fmt.Errorf("search release of %s: %w", u.cfg.Repository, res.Err)
	case search.NotFound:
		j.SetStatus("No releases found for %s", u.cfg.Repository)
		j.Finish(false)
		return nil
	case search.UpToDate:
		metrics.UpdatesAvailable.WithLabelValues(JobName).Set(0)
		j.SetStatus("ServerPilot is on the latest version (%s)", u.version)
		return nil
	}
	metrics.UpdatesAvailable.WithLabelValues(JobName).Set(1)

	task := download.NewTask(u.downloads, "serverpilot", res.Latest, res.DownloadURL, download.ParsePolicy(u.cfg.Policy))
	task.Ext = binaryExt()
	task.DownloadsDir = u.downloadsDir
	task.Install = func(_ context.Context, staged string) error {
		return u.stageAndLaunch(staged)
	}

	dl := u.starter.Start("Download "+task.Name, task.Run)
	if err := u.starter.Await(ctx, dl); err != nil {
		return err
	}
	if dl.Outcome() == jobs.Failed {
		return dl.Err()
	}
	if !task.Installed() {
		j.SetStatus("Update found for ServerPilot (%s -> %s)", u.version, res.Latest)
		return nil
	}

	logging.Ctx(ctx).Info().Str("version", res.Latest).Msg("Launched staged ServerPilot update, shutting down")
	j.SetStatus("Launched ServerPilot %s from the downloads directory, restarting the agent", res.Latest)
	if u.onRelaunch != nil {
		u.onRelaunch()
	}
	return nil
}

// stageAndLaunch copies the download to downloads/<executable name> and
// starts it there. The started copy finds itself in the staging directory
// and performs the install once this process has exited.
func (u *Updater) stageAndLaunch(staged string) error {
	dir, err := filepath.Abs(u.downloadsDir)
	if err != nil {
		return err
	}
	dest := filepath.Join(dir, filepath.Base(u.exe))
	if err := copyExecutable(staged, dest); err != nil {
		return fmt.Errorf("stage %s: %w", dest, err)
	}

	env := append(cleanEnv(os.Environ()),
		EnvInstallTarget+"="+u.exe,
		EnvParentPID+"="+strconv.Itoa(os.Getpid()),
	)
	if err := u.launch(dest, dir, u.args, env); err != nil {
		return fmt.Errorf("launch %s: %w", dest, err)
	}
	return nil
}

func binaryExt() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ".bin"
}
