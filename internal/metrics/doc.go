// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

/*
Package metrics provides Prometheus metrics for ServerPilot.

All collectors are registered on the default registry through promauto and
exported by the status API at /metrics when the API is enabled:

	curl -H "Authorization: Bearer $TOKEN" http://127.0.0.1:8765/metrics

# Available Metrics

Managed server:
  - serverpilot_server_running (gauge)
  - serverpilot_server_starts_total (counter)
  - serverpilot_server_exits_total{kind} (counter): clean, crash, killed
  - serverpilot_server_restarts_total{trigger} (counter)
  - serverpilot_server_commands_total{result} (counter): sent, dropped
  - serverpilot_server_cpu_percent, serverpilot_server_memory_rss_bytes (gauges)

Maintenance cycles:
  - serverpilot_cycles_total{cooldown} (counter)
  - serverpilot_cycle_duration_seconds (histogram)
  - serverpilot_cycle_last_timestamp_seconds (gauge)
  - serverpilot_job_outcomes_total{job,outcome} (counter)
  - serverpilot_job_duration_seconds{job} (histogram)

Updates:
  - serverpilot_search_results_total{source,classification} (counter)
  - serverpilot_search_duration_seconds{source} (histogram)
  - serverpilot_updates_available{updater} (gauge)
  - serverpilot_downloads_total{result}, serverpilot_download_bytes_total (counters)

Backups:
  - serverpilot_backups_total{result}, serverpilot_backups_pruned_total (counters)
  - serverpilot_backup_duration_seconds (histogram)
  - serverpilot_backup_last_size_bytes (gauge)

Circuit breakers (one per remote source):
  - circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_consecutive_failures{name}
  - circuit_breaker_state_transitions_total{name,from_state,to_state}

# Usage

Packages call the Record* helpers rather than touching collectors directly:

	metrics.RecordJob("BackupTask", "success", time.Since(start))
	metrics.RecordSearch("jenkins", "UPDATE_AVAILABLE", elapsed)

Label values are drawn from small fixed sets; never pass user input as a label.
*/
package metrics
