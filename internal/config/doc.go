// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

/*
Package config provides layered configuration loading for ServerPilot.

# Configuration Sources

Configuration is built from three layers, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: $SERVERPILOT_CONFIG, ./serverpilot.yaml,
    ./serverpilot.yml, ./serverpilot/config.yaml or /etc/serverpilot/config.yaml
 3. Environment variables listed in envMappings (SERVERPILOT_*, LOG_*)

List settings given through the environment are comma separated, except
restarter.custom.cron which is separated by ';' because cron expressions
contain spaces and commas.

# Example

	server:
	  work_dir: /srv/minecraft
	  start_command: java -Xmx4G -jar server.jar nogui
	  stop_commands: [stop]
	  restart_on_crash: true
	tasks:
	  cooldown_minutes: 60
	updaters:
	  plugins:
	    enabled: true
	    policy: automatic
	    targets:
	      EssentialsX:
	        jenkins:
	          project_url: https://ci.ender.zone/job/EssentialsX
	          artifact_name: EssentialsX-
	restarter:
	  daily:
	    enabled: true
	    times: ["04:00"]
	    commands:
	      "10": ["say Restarting in 10 seconds"]
	      "0":  ["say Restarting now"]

# Validation

Validate runs the struct tag rules from the validation package (policy,
hhmm, cronspec and the standard validator tags) followed by cross-field
checks. Errors name the koanf path of the offending field.

# Hot Reload

Watcher observes the file's directory with fsnotify and passes every valid
reloaded Config to a callback. The agent applies the log level and restart
schedules from it; other settings take effect on the next launch.

# Thread Safety

Config values are not synchronized. Treat a loaded Config as immutable and
replace it as a whole.
*/
package config
