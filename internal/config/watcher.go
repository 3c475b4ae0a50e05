// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tomtom215/serverpilot/internal/logging"
)

// DefaultReloadDebounce collapses the burst of events editors emit on save.
const DefaultReloadDebounce = 500 * time.Millisecond

// Watcher reloads the configuration file when it changes on disk and hands
// every successfully validated result to OnChange. Invalid edits are logged
// and ignored; the previous configuration stays in effect.
//
// Watcher implements suture.Service.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(*Config)
}

// NewWatcher creates a watcher for path. onChange runs on the watcher goroutine.
func NewWatcher(path string, onChange func(*Config)) *Watcher {
	return &Watcher{path: path, debounce: DefaultReloadDebounce, onChange: onChange}
}

// Serve watches the file's directory until ctx is canceled. The directory is
// watched instead of the file so that atomic rename-on-save keeps working.
func (w *Watcher) Serve(ctx context.Context) error {
	if w.path == "" {
		<-ctx.Done()
		return ctx.Err()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close config watcher")
		}
	}()

	target, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("config watcher closed unexpectedly")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C
		case <-timerCh:
			timerCh = nil
			w.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("config watcher closed unexpectedly")
			}
			logging.Warn().Err(err).Msg("Config watcher error")
		}
	}
}

func (w *Watcher) reload() {
	cfg, _, err := LoadFrom(w.path)
	if err != nil {
		logging.Warn().Err(err).Str("path", w.path).Msg("Ignoring invalid configuration change")
		return
	}
	logging.Info().Str("path", w.path).Msg("Configuration reloaded")
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// String implements fmt.Stringer for supervisor logging.
func (w *Watcher) String() string {
	return "config-watcher"
}
