// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

// Package selfupdate replaces the agent's own executable.
//
// An update happens in two processes. The running agent downloads the new
// release, copies it into serverpilot/downloads and launches that copy from
// inside the downloads directory, then shuts down. The copy notices it was
// started from the staging directory (IsStaged), waits for the old agent to
// exit, swaps the installed executable and launches it from the installation
// directory. The staged copy never runs any other startup logic.
package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	gopsprocess "github.com/shirou/gopsutil/v4/process"

	"github.com/tomtom215/serverpilot/internal/config"
)

const (
	// CriticalLogName is the file in the installation directory that
	// collects failures of the staged install. Normal logging is not set
	// up in the staged process.
	CriticalLogName = "A0-CRITICAL-SELF-UPDATER-ERROR.log"

	// EnvInstallTarget names the executable the staged copy replaces.
	EnvInstallTarget = "SERVERPILOT_INSTALL_TARGET"
	// EnvParentPID is the pid of the agent that launched the staged copy.
	EnvParentPID = "SERVERPILOT_PARENT_PID"

	stagingDirName = "downloads"
)

// ErrParentAlive is returned when the launching agent did not exit in time.
var ErrParentAlive = errors.New("previous agent process is still running")

// Launcher starts exe detached from the current process.
type Launcher func(exe, dir string, args, env []string) error

// Installer performs the swap-and-relaunch of a staged executable.
type Installer struct {
	workDir   string
	exe       string
	args      []string
	target    string
	parentPID int32

	waitTimeout  time.Duration
	pollInterval time.Duration
	retryDelay   time.Duration

	launch    Launcher
	pidExists func(ctx context.Context, pid int32) (bool, error)
	now       func() time.Time
}

// NewInstaller creates an installer for the process running exe with args
// from workDir. The install target and parent pid are read from the
// environment set by the launching agent.
func NewInstaller(workDir, exe string, args []string) *Installer {
	return &Installer{
		workDir:      filepath.Clean(workDir),
		exe:          exe,
		args:         args,
		target:       os.Getenv(EnvInstallTarget),
		parentPID:    parsePID(os.Getenv(EnvParentPID)),
		waitTimeout:  2 * time.Minute,
		pollInterval: 500 * time.Millisecond,
		retryDelay:   time.Second,
		launch:       launchDetached,
		pidExists:    gopsprocess.PidExistsWithContext,
		now:          time.Now,
	}
}

func parsePID(s string) int32 {
	pid, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil || pid <= 0 {
		return 0
	}
	return int32(pid)
}

// IsStaged reports whether the working directory is the agent's staging
// directory (<install>/serverpilot/downloads).
func (i *Installer) IsStaged() bool {
	return filepath.Base(i.workDir) == stagingDirName &&
		filepath.Base(filepath.Dir(i.workDir)) == config.AgentDirName
}

// InstallDir is the real installation directory, two levels above the
// staging directory.
func (i *Installer) InstallDir() string {
	return filepath.Dir(filepath.Dir(i.workDir))
}

// Target is the executable that gets replaced.
func (i *Installer) Target() string {
	if i.target != "" {
		return i.target
	}
	return filepath.Join(i.InstallDir(), filepath.Base(i.exe))
}

// InstallAndRelaunch waits for the launching agent to exit, replaces Target
// with the running executable and starts it from InstallDir.
func (i *Installer) InstallAndRelaunch(ctx context.Context) error {
	if err := i.waitForParent(ctx); err != nil {
		return err
	}
	target := i.Target()
	if err := i.replaceExecutable(ctx, target); err != nil {
		return fmt.Errorf("replace %s: %w", target, err)
	}
	if err := i.launch(target, i.InstallDir(), i.args, cleanEnv(os.Environ())); err != nil {
		return fmt.Errorf("relaunch %s: %w", target, err)
	}
	return nil
}

// waitForParent blocks until the launching agent exited. The old agent holds
// the state database lock and, on Windows, a lock on its executable.
func (i *Installer) waitForParent(ctx context.Context) error {
	if i.parentPID == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, i.waitTimeout)
	defer cancel()

	ticker := time.NewTicker(i.pollInterval)
	defer ticker.Stop()
	for {
		alive, err := i.pidExists(ctx, i.parentPID)
		if err != nil {
			return fmt.Errorf("check pid %d: %w", i.parentPID, err)
		}
		if !alive {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (pid %d)", ErrParentAlive, i.parentPID)
		case <-ticker.C:
		}
	}
}

// replaceExecutable copies the running executable next to target and renames
// it into place. The rename is retried while the old file is still locked.
func (i *Installer) replaceExecutable(ctx context.Context, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return err
	}
	tmp := target + ".new"
	if err := copyExecutable(i.exe, tmp); err != nil {
		_ = os.Remove(tmp) //nolint:errcheck // best effort
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(i.retryDelay), 10), ctx)
	err := backoff.Retry(func() error {
		return os.Rename(tmp, target)
	}, b)
	if err != nil {
		_ = os.Remove(tmp) //nolint:errcheck // best effort
		return err
	}
	return nil
}

func copyExecutable(src, dst string) (err error) {
	in, err := os.Open(src) //nolint:gosec // our own executable
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755) //nolint:gosec // executables need the x bit
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}

// cleanEnv drops the staging variables so the relaunched agent starts as a
// normal instance.
func cleanEnv(env []string) []string {
	out := make([]string, 0, len(env))
	for _, kv := range env {
		if strings.HasPrefix(kv, EnvInstallTarget+"=") || strings.HasPrefix(kv, EnvParentPID+"=") {
			continue
		}
		out = append(out, kv)
	}
	return out
}

// WriteCritical appends cause to the critical log in the installation
// directory.
func (i *Installer) WriteCritical(cause error) error {
	path := filepath.Join(i.InstallDir(), CriticalLogName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // operator-readable log
	if err != nil {
		return err
	}
	line := fmt.Sprintf("[%s] self-update of %s failed: %v\n", i.now().Format(time.RFC3339), i.Target(), cause)
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// RunIfStaged must be called first thing in main. When the process was
// started from the staging directory it installs and relaunches the update
// and reports staged=true; the caller must then exit (with status 1 when err
// is set). Otherwise it does nothing.
func RunIfStaged(ctx context.Context) (staged bool, err error) {
	wd, err := os.Getwd()
	if err != nil {
		return false, fmt.Errorf("working directory: %w", err)
	}
	exe, err := os.Executable()
	if err != nil {
		return false, fmt.Errorf("executable path: %w", err)
	}

	inst := NewInstaller(wd, exe, os.Args[1:])
	if !inst.IsStaged() {
		return false, nil
	}
	if err := inst.InstallAndRelaunch(ctx); err != nil {
		if werr := inst.WriteCritical(err); werr != nil {
			fmt.Fprintf(os.Stderr, "self-update failed: %v (critical log: %v)\n", err, werr)
		}
		return true, err
	}
	return true, nil
}
