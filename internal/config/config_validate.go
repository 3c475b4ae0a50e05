// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/serverpilot/internal/validation"
)

// Validate checks that required configuration is present and valid.
// Struct tags are checked first, then the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	validators := []func() error{
		c.validateServer,
		c.validateRestarter,
		c.validateServerUpdater,
		c.validateAPI,
	}
	for _, validator := range validators {
		if err := validator(); err != nil {
			return err
		}
	}
	return nil
}

// validateServer validates the managed server section
func (c *Config) validateServer() error {
	if c.Server.StartOnLaunch && strings.TrimSpace(c.Server.StartCommand) == "" {
		return fmt.Errorf("server.start_command is required when server.start_on_launch=true")
	}
	for i, cmd := range c.Server.StopCommands {
		if strings.TrimSpace(cmd) == "" {
			return fmt.Errorf("server.stop_commands[%d] must not be empty", i)
		}
	}
	return nil
}

// validateRestarter validates restart schedules and their countdown commands
func (c *Config) validateRestarter() error {
	if c.Restarter.Daily.Enabled && len(c.Restarter.Daily.Times) == 0 {
		return fmt.Errorf("restarter.daily.times must list at least one HH:MM time when enabled")
	}
	if c.Restarter.Custom.Enabled && len(c.Restarter.Custom.Cron) == 0 {
		return fmt.Errorf("restarter.custom.cron must list at least one expression when enabled")
	}
	if err := validateCountdownKeys("restarter.daily.commands", c.Restarter.Daily.Commands); err != nil {
		return err
	}
	return validateCountdownKeys("restarter.custom.commands", c.Restarter.Custom.Commands)
}

// validateCountdownKeys requires every key to be a non-negative number of seconds.
func validateCountdownKeys(field string, commands map[string][]string) error {
	for key := range commands {
		n, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || n < 0 {
			return fmt.Errorf("%s key %q must be a non-negative number of seconds", field, key)
		}
	}
	return nil
}

// validateServerUpdater validates the server jar source
func (c *Config) validateServerUpdater() error {
	su := c.Updaters.Server
	if !su.Enabled {
		return nil
	}
	if su.Software == "jenkins" {
		if su.Jenkins.ProjectURL == "" || su.Jenkins.ArtifactName == "" {
			return fmt.Errorf("updaters.server.jenkins.project_url and artifact_name are required when software=jenkins")
		}
	}
	return nil
}

// validateAPI validates the status API section (only if enabled)
func (c *Config) validateAPI() error {
	if !c.API.Enabled {
		return nil
	}
	if c.API.Token != "" && len(c.API.Token) < 16 {
		return fmt.Errorf("api.token must be at least 16 characters")
	}
	if c.API.Token == "" && !isLoopback(c.API.Host) {
		return fmt.Errorf("api.token is required when api.host is not a loopback address")
	}
	return nil
}

func isLoopback(host string) bool {
	switch host {
	case "127.0.0.1", "localhost", "::1":
		return true
	}
	return false
}

// CountdownSeconds parses a restart command map into second offsets.
// Keys are assumed validated.
func CountdownSeconds(commands map[string][]string) map[int][]string {
	out := make(map[int][]string, len(commands))
	for key, cmds := range commands {
		n, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		out[n] = append(out[n], cmds...)
	}
	return out
}
