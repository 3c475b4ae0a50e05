// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

const serviceName = "serverpilot"

var serviceEnvVars []string

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the ServerPilot system service (auto-start on boot)",
}

func init() {
	installCmd.Flags().StringSliceVar(&serviceEnvVars, "service-env", nil,
		"extra environment for the service as comma-separated KEY=VALUE pairs, e.g. --service-env LOG_LEVEL=debug")
	serviceCmd.AddCommand(installCmd, uninstallCmd, startCmd, stopCmd, statusCmd)
}

// newServiceConfig describes the agent to the service manager. The service
// runs `serverpilot run` in the current directory, so relative config and
// work dir paths resolve the same way as in a terminal.
func newServiceConfig() (*service.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}
	args, err := serviceArguments(configPath)
	if err != nil {
		return nil, err
	}
	env, err := parseServiceEnvVars(serviceEnvVars)
	if err != nil {
		return nil, fmt.Errorf("parse service environment variables: %w", err)
	}

	cfg := &service.Config{
		Name:             serviceName,
		DisplayName:      "ServerPilot",
		Description:      "Unattended game server operations agent",
		Arguments:        args,
		WorkingDirectory: wd,
		EnvVars:          env,
		Option:           make(service.KeyValue),
	}
	switch runtime.GOOS {
	case "linux":
		// Respected only by systemd.
		cfg.Dependencies = []string{"After=network-online.target", "Wants=network-online.target"}
	case "windows":
		cfg.Option["OnFailure"] = "restart"
	}
	return cfg, nil
}

// serviceArguments pins the config file by absolute path.
func serviceArguments(config string) ([]string, error) {
	args := []string{"run"}
	if config == "" {
		return args, nil
	}
	abs, err := filepath.Abs(config)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	return append(args, "--config", abs), nil
}

func parseServiceEnvVars(envVars []string) (map[string]string, error) {
	envMap := make(map[string]string)
	for _, env := range envVars {
		if env == "" {
			continue
		}
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			return nil, fmt.Errorf("invalid environment variable format: %s (expected KEY=VALUE)", env)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("empty environment variable key in: %s", env)
		}
		envMap[key] = strings.TrimSpace(value)
	}
	return envMap, nil
}

func newService() (service.Service, error) {
	cfg, err := newServiceConfig()
	if err != nil {
		return nil, err
	}
	return service.New(&program{}, cfg)
}

// serviceAction builds a subcommand calling one service.Service method.
func serviceAction(use, short, done string, action func(service.Service) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newService()
			if err != nil {
				return err
			}
			if err := action(s); err != nil {
				return fmt.Errorf("%s service: %w", use, err)
			}
			cmd.Println(done)
			return nil
		},
	}
}

var (
	installCmd   = serviceAction("install", "Install ServerPilot as a system service", "ServerPilot service has been installed", service.Service.Install)
	uninstallCmd = serviceAction("uninstall", "Remove the ServerPilot system service", "ServerPilot service has been uninstalled", service.Service.Uninstall)
	startCmd     = serviceAction("start", "Start the ServerPilot system service", "ServerPilot service has been started", service.Service.Start)
	stopCmd      = serviceAction("stop", "Stop the ServerPilot system service", "ServerPilot service has been stopped", service.Service.Stop)
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the ServerPilot system service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newService()
		if err != nil {
			return err
		}
		status, err := s.Status()
		if err != nil {
			return fmt.Errorf("service status: %w", err)
		}
		cmd.Println(statusText(status))
		return nil
	},
}

func statusText(s service.Status) string {
	switch s {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
