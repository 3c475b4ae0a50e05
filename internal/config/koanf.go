// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"serverpilot.yaml",
	"serverpilot.yml",
	filepath.Join(AgentDirName, "config.yaml"),
	"/etc/serverpilot/config.yaml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "SERVERPILOT_CONFIG"

// DefaultUserAgent identifies the agent to remote update sources.
const DefaultUserAgent = "ServerPilot - https://github.com/tomtom215/serverpilot"

// defaultConfig returns a Config struct with all defaults applied.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			WorkDir:               ".",
			StartCommand:          "java -Xms1G -Xmx2G -jar server.jar nogui",
			StopCommands:          []string{"stop"},
			RestartOnCrash:        false,
			StopAgentOnServerStop: false,
			StartOnLaunch:         true,
			ColorOutput:           true,
			StopTimeout:           10 * time.Minute,
			KillTimeout:           10 * time.Minute,
			CrashPollInterval:     2 * time.Second,
			StatsInterval:         15 * time.Second,
		},
		Tasks: TasksConfig{
			CooldownMinutes:     60,
			LiveDisplay:         true,
			RefreshInterval:     250 * time.Millisecond,
			UpdateCheckInterval: 0, // Disabled by default
			General: GeneralTasksConfig{
				Enabled:            true,
				PruneDownloadsDays: 7,
				PruneLogsDays:      14,
			},
		},
		SelfUpdate: SelfUpdateConfig{
			Enabled:    false,
			Policy:     "automatic",
			Repository: "tomtom215/serverpilot",
			APIURL:     "https://api.github.com",
			AssetName:  "serverpilot_{os}_{arch}",
		},
		Backup: BackupConfig{
			Enabled:          true,
			Exclude:          []string{"*.log", "cache/*"},
			MaxDays:          7,
			MaxCount:         10,
			CompressionLevel: 6,
		},
		Updaters: UpdatersConfig{
			Java: JavaUpdaterConfig{
				Enabled:        false,
				Policy:         "manual",
				FeatureVersion: 21,
				APIURL:         "https://api.adoptium.net",
				InstallDir:     filepath.Join(AgentDirName, "java"),
			},
			Server: ServerUpdaterConfig{
				Enabled:     false,
				Policy:      "manual",
				Software:    "paper",
				Version:     "",
				JarPath:     "server.jar",
				PaperAPIURL: "https://api.papermc.io",
			},
			Plugins: PluginsUpdaterConfig{
				Enabled:   true,
				Policy:    "manual",
				Dir:       "plugins",
				SpigetURL: "https://api.spiget.org",
				BukkitURL: "https://api.curseforge.com",
				Targets:   map[string]PluginTarget{},
			},
			Mods: ModsUpdaterConfig{
				Enabled:     false,
				Policy:      "manual",
				Dir:         "mods",
				Loader:      "fabric",
				ModrinthURL: "https://api.modrinth.com",
				Targets:     map[string]ModTarget{},
			},
		},
		Restarter: RestarterConfig{
			Daily: DailyRestartConfig{
				Enabled: false,
				Times:   []string{},
				Commands: map[string][]string{
					"10": {"say Restarting in 10 seconds."},
					"0":  {"say Restarting now."},
				},
			},
			Custom: CustomRestartConfig{
				Enabled:  false,
				Cron:     []string{},
				Commands: map[string][]string{},
			},
		},
		Remote: RemoteConfig{
			UserAgent:         DefaultUserAgent,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
			MaxRetries:        3,
			RetryDelay:        time.Second,
		},
		API: APIConfig{
			Enabled:         false,
			Host:            "127.0.0.1",
			Port:            8765,
			Token:           "",
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
			File: LogFileConfig{
				Enabled:    true,
				MaxSizeMB:  20,
				MaxBackups: 5,
				MaxAgeDays: 14,
				Compress:   true,
			},
		},
	}
}

// Load loads configuration with layered sources:
//  1. Defaults: built-in defaults
//  2. Config File: optional YAML file (if found)
//  3. Environment Variables: override any mapped setting
//
// Relative paths are then resolved against the server work dir and the
// result is validated.
func Load() (*Config, error) {
	cfg, _, err := LoadFrom(findConfigFile())
	return cfg, err
}

// LoadFrom is Load with an explicit config file path ("" for none).
// It returns the path actually used so callers can watch it.
func LoadFrom(configPath string) (*Config, string, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// SERVERPILOT_WORK_DIR -> server.work_dir, LOG_LEVEL -> logging.level
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, "", fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, configPath, nil
}

// normalize makes the work dir absolute so that later chdir calls and the
// self-installer see stable paths.
func (c *Config) normalize() error {
	abs, err := filepath.Abs(c.Server.WorkDir)
	if err != nil {
		return fmt.Errorf("failed to resolve work dir %q: %w", c.Server.WorkDir, err)
	}
	c.Server.WorkDir = abs
	return nil
}

// FindConfigFile returns the config file Load would use, or "".
func FindConfigFile() string {
	return findConfigFile()
}

// findConfigFile searches for a config file in the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.stop_commands",
	"backup.exclude",
	"restarter.daily.times",
	"restarter.custom.cron",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		// Cron expressions contain spaces but never semicolons, so the
		// custom schedule list is split on ';' instead of ','.
		sep := ","
		if path == "restarter.custom.cron" {
			sep = ";"
		}

		parts := strings.Split(strVal, sep)
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"serverpilot_work_dir":                  "server.work_dir",
	"serverpilot_start_command":             "server.start_command",
	"serverpilot_stop_commands":             "server.stop_commands",
	"serverpilot_restart_on_crash":          "server.restart_on_crash",
	"serverpilot_stop_agent_on_server_stop": "server.stop_agent_on_server_stop",
	"serverpilot_start_on_launch":           "server.start_on_launch",
	"serverpilot_color_output":              "server.color_output",
	"serverpilot_stop_timeout":              "server.stop_timeout",
	"serverpilot_kill_timeout":              "server.kill_timeout",

	// Tasks
	"serverpilot_cooldown_minutes":      "tasks.cooldown_minutes",
	"serverpilot_live_display":          "tasks.live_display",
	"serverpilot_update_check_interval": "tasks.update_check_interval",

	// Self update
	"serverpilot_self_update_enabled":    "self_update.enabled",
	"serverpilot_self_update_policy":     "self_update.policy",
	"serverpilot_self_update_repository": "self_update.repository",

	// Backup
	"serverpilot_backup_enabled":   "backup.enabled",
	"serverpilot_backup_exclude":   "backup.exclude",
	"serverpilot_backup_max_days":  "backup.max_days",
	"serverpilot_backup_max_count": "backup.max_count",

	// Updaters
	"serverpilot_java_updater_enabled":    "updaters.java.enabled",
	"serverpilot_java_updater_policy":     "updaters.java.policy",
	"serverpilot_java_feature_version":    "updaters.java.feature_version",
	"serverpilot_server_updater_enabled":  "updaters.server.enabled",
	"serverpilot_server_updater_policy":   "updaters.server.policy",
	"serverpilot_server_software":         "updaters.server.software",
	"serverpilot_server_version":          "updaters.server.version",
	"serverpilot_server_jar":              "updaters.server.jar_path",
	"serverpilot_plugins_updater_enabled": "updaters.plugins.enabled",
	"serverpilot_plugins_updater_policy":  "updaters.plugins.policy",
	"serverpilot_mods_updater_enabled":    "updaters.mods.enabled",
	"serverpilot_mods_updater_policy":     "updaters.mods.policy",
	"serverpilot_mods_game_version":       "updaters.mods.game_version",

	// Restarter
	"serverpilot_daily_restart_enabled":  "restarter.daily.enabled",
	"serverpilot_daily_restart_times":    "restarter.daily.times",
	"serverpilot_custom_restart_enabled": "restarter.custom.enabled",
	"serverpilot_custom_restart_cron":    "restarter.custom.cron",

	// Remote sources
	"serverpilot_user_agent":     "remote.user_agent",
	"serverpilot_remote_timeout": "remote.timeout",
	"serverpilot_remote_rps":     "remote.requests_per_second",

	// API
	"serverpilot_api_enabled": "api.enabled",
	"serverpilot_api_host":    "api.host",
	"serverpilot_api_port":    "api.port",
	"serverpilot_api_token":   "api.token",

	// Logging
	"log_level":       "logging.level",
	"log_format":      "logging.format",
	"log_caller":      "logging.caller",
	"log_file":        "logging.file.enabled",
	"log_max_size_mb": "logging.file.max_size_mb",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped so that unrelated environment
// does not leak into the configuration.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
