// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package config

import (
	"path/filepath"
	"time"
)

// AgentDirName is the directory inside the server working directory that holds
// everything the agent writes (downloads, backups, logs, state).
const AgentDirName = "serverpilot"

// Config holds all agent configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Tasks      TasksConfig      `koanf:"tasks"`
	SelfUpdate SelfUpdateConfig `koanf:"self_update"`
	Backup     BackupConfig     `koanf:"backup"`
	Updaters   UpdatersConfig   `koanf:"updaters"`
	Restarter  RestarterConfig  `koanf:"restarter"`
	Remote     RemoteConfig     `koanf:"remote"`
	API        APIConfig        `koanf:"api"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig describes the managed server process.
type ServerConfig struct {
	// WorkDir is the server's working directory. Relative paths elsewhere in
	// the configuration are resolved against it.
	WorkDir string `koanf:"work_dir" validate:"required"`

	// StartCommand is split on spaces; quoted sections stay together.
	StartCommand string `koanf:"start_command"`

	// StopCommands are written to the server's stdin, in order, by Stop.
	StopCommands []string `koanf:"stop_commands"`

	RestartOnCrash        bool `koanf:"restart_on_crash"`
	StopAgentOnServerStop bool `koanf:"stop_agent_on_server_stop"`
	StartOnLaunch         bool `koanf:"start_on_launch"`
	ColorOutput           bool `koanf:"color_output"`

	StopTimeout       time.Duration `koanf:"stop_timeout" validate:"gt=0"`
	KillTimeout       time.Duration `koanf:"kill_timeout" validate:"gt=0"`
	CrashPollInterval time.Duration `koanf:"crash_poll_interval" validate:"gt=0"`
	StatsInterval     time.Duration `koanf:"stats_interval"`
}

// TasksConfig controls the pre-startup maintenance cycle.
type TasksConfig struct {
	// CooldownMinutes is the minimum time between two cycles' update checks.
	CooldownMinutes int `koanf:"cooldown_minutes" validate:"gte=0"`

	// LiveDisplay renders job progress continuously instead of printing one
	// summary after every job finished.
	LiveDisplay     bool          `koanf:"live_display"`
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"gt=0"`

	// UpdateCheckInterval enables the recurring notify-only update checker
	// while the server runs. Zero disables it.
	UpdateCheckInterval time.Duration `koanf:"update_check_interval"`

	General GeneralTasksConfig `koanf:"general"`
}

// GeneralTasksConfig controls housekeeping performed every cycle.
type GeneralTasksConfig struct {
	Enabled            bool `koanf:"enabled"`
	PruneDownloadsDays int  `koanf:"prune_downloads_days" validate:"gte=0"`
	PruneLogsDays      int  `koanf:"prune_logs_days" validate:"gte=0"`
}

// SelfUpdateConfig controls updates of the agent binary itself.
type SelfUpdateConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Policy     string `koanf:"policy" validate:"policy"`
	Repository string `koanf:"repository" validate:"required_if=Enabled true"`
	APIURL     string `koanf:"api_url" validate:"omitempty,url"`
	// AssetName is matched as a substring of the release asset names.
	// {os} and {arch} are replaced with the running platform.
	AssetName string `koanf:"asset_name"`
}

// BackupConfig controls the pre-startup backup.
type BackupConfig struct {
	Enabled          bool     `koanf:"enabled"`
	Exclude          []string `koanf:"exclude"`
	MaxDays          int      `koanf:"max_days" validate:"gte=0"`
	MaxCount         int      `koanf:"max_count" validate:"gte=0"`
	CompressionLevel int      `koanf:"compression_level" validate:"gte=-1,lte=9"`
}

// UpdatersConfig groups the four update jobs.
type UpdatersConfig struct {
	Java    JavaUpdaterConfig    `koanf:"java"`
	Server  ServerUpdaterConfig  `koanf:"server"`
	Plugins PluginsUpdaterConfig `koanf:"plugins"`
	Mods    ModsUpdaterConfig    `koanf:"mods"`
}

// JavaUpdaterConfig installs Temurin runtimes from the Adoptium API.
type JavaUpdaterConfig struct {
	Enabled        bool   `koanf:"enabled"`
	Policy         string `koanf:"policy" validate:"policy"`
	FeatureVersion int    `koanf:"feature_version" validate:"gte=8"`
	APIURL         string `koanf:"api_url" validate:"omitempty,url"`
	InstallDir     string `koanf:"install_dir"`
}

// ServerUpdaterConfig keeps the server jar current.
type ServerUpdaterConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Policy      string        `koanf:"policy" validate:"policy"`
	Software    string        `koanf:"software" validate:"oneof=paper jenkins"`
	Version     string        `koanf:"version"`
	JarPath     string        `koanf:"jar_path" validate:"required_if=Enabled true"`
	PaperAPIURL string        `koanf:"paper_api_url" validate:"omitempty,url"`
	Jenkins     JenkinsSource `koanf:"jenkins"`
}

// JenkinsSource points at a Jenkins-style CI project.
type JenkinsSource struct {
	ProjectURL   string `koanf:"project_url" validate:"omitempty,url"`
	ArtifactName string `koanf:"artifact_name"`
}

// PluginsUpdaterConfig keeps plugins/*.jar current.
type PluginsUpdaterConfig struct {
	Enabled   bool                    `koanf:"enabled"`
	Policy    string                  `koanf:"policy" validate:"policy"`
	Dir       string                  `koanf:"dir"`
	SpigetURL string                  `koanf:"spiget_url" validate:"omitempty,url"`
	BukkitURL string                  `koanf:"bukkit_url" validate:"omitempty,url"`
	Targets   map[string]PluginTarget `koanf:"targets" validate:"dive"`
}

// PluginTarget holds per-plugin overrides keyed by plugin name.
type PluginTarget struct {
	Exclude           bool          `koanf:"exclude"`
	SpigotID          int           `koanf:"spigot_id" validate:"gte=0"`
	BukkitID          int           `koanf:"bukkit_id" validate:"gte=0"`
	Author            string        `koanf:"author"`
	Jenkins           JenkinsSource `koanf:"jenkins"`
	CustomDownloadURL string        `koanf:"custom_download_url" validate:"omitempty,url"`
	IgnoreContentType bool          `koanf:"ignore_content_type"`
}

// ModsUpdaterConfig keeps mods/*.jar current through Modrinth.
type ModsUpdaterConfig struct {
	Enabled     bool                 `koanf:"enabled"`
	Policy      string               `koanf:"policy" validate:"policy"`
	Dir         string               `koanf:"dir"`
	Loader      string               `koanf:"loader"`
	GameVersion string               `koanf:"game_version"`
	ModrinthURL string               `koanf:"modrinth_url" validate:"omitempty,url"`
	Targets     map[string]ModTarget `koanf:"targets" validate:"dive"`
}

// ModTarget holds per-mod overrides keyed by mod id.
type ModTarget struct {
	Exclude           bool   `koanf:"exclude"`
	ModrinthID        string `koanf:"modrinth_id"`
	IgnoreContentType bool   `koanf:"ignore_content_type"`
}

// RestarterConfig configures scheduled restarts.
type RestarterConfig struct {
	Daily  DailyRestartConfig  `koanf:"daily"`
	Custom CustomRestartConfig `koanf:"custom"`
}

// DailyRestartConfig restarts the server at fixed times of day.
type DailyRestartConfig struct {
	Enabled bool     `koanf:"enabled"`
	Times   []string `koanf:"times" validate:"dive,hhmm"`
	// Commands maps seconds-before-restart to the commands sent at that second.
	Commands map[string][]string `koanf:"commands"`
}

// CustomRestartConfig restarts the server on cron expressions.
type CustomRestartConfig struct {
	Enabled  bool                `koanf:"enabled"`
	Cron     []string            `koanf:"cron" validate:"dive,cronspec"`
	Commands map[string][]string `koanf:"commands"`
}

// RemoteConfig tunes the HTTP client shared by all update sources.
type RemoteConfig struct {
	UserAgent         string        `koanf:"user_agent" validate:"required"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	Burst             int           `koanf:"burst" validate:"gte=1"`
	MaxRetries        int           `koanf:"max_retries" validate:"gte=0,lte=10"`
	RetryDelay        time.Duration `koanf:"retry_delay"`
}

// APIConfig configures the local status/control API.
type APIConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	Token           string        `koanf:"token"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
}

// SupervisorConfig mirrors supervisor.TreeConfig.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string        `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"oneof=json console"`
	Caller bool          `koanf:"caller"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig configures the rotated log file under serverpilot/logs.
type LogFileConfig struct {
	Enabled    bool `koanf:"enabled"`
	MaxSizeMB  int  `koanf:"max_size_mb" validate:"gte=1"`
	MaxBackups int  `koanf:"max_backups" validate:"gte=0"`
	MaxAgeDays int  `koanf:"max_age_days" validate:"gte=0"`
	Compress   bool `koanf:"compress"`
}

// AgentDir returns <work_dir>/serverpilot.
func (c *Config) AgentDir() string {
	return filepath.Join(c.Server.WorkDir, AgentDirName)
}

// DownloadsDir is the staging directory for downloaded updates.
func (c *Config) DownloadsDir() string {
	return filepath.Join(c.AgentDir(), "downloads")
}

// BackupsDir holds backup archives.
func (c *Config) BackupsDir() string {
	return filepath.Join(c.AgentDir(), "backups")
}

// LogsDir holds the agent's rotated log files.
func (c *Config) LogsDir() string {
	return filepath.Join(c.AgentDir(), "logs")
}

// StateDir holds the persisted cycle state database.
func (c *Config) StateDir() string {
	return filepath.Join(c.AgentDir(), "state")
}

// Resolve returns p unchanged if absolute, otherwise joined to the work dir.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Server.WorkDir, p)
}
