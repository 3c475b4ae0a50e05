// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Managed server lifecycle and resource usage
// - Maintenance cycles and their jobs
// - Remote update searches, downloads and installs
// - Backups
// - Circuit breakers guarding remote sources
// - The status API

var (
	// Managed Server Metrics
	ServerRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "serverpilot_server_running",
			Help: "Whether the managed server process is running (1) or not (0)",
		},
	)

	ServerStartsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "serverpilot_server_starts_total",
			Help: "Total number of managed server starts",
		},
	)

	ServerExitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serverpilot_server_exits_total",
			Help: "Total number of managed server exits by kind",
		},
		[]string{"kind"}, // "clean", "crash", "killed"
	)

	ServerRestartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serverpilot_server_restarts_total",
			Help: "Total number of managed server restarts by trigger",
		},
		[]string{"trigger"}, // "crash", "daily", "custom", "api"
	)

	ServerCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serverpilot_server_commands_total",
			Help: "Total number of commands submitted to the managed server",
		},
		[]string{"result"}, // "sent", "dropped"
	)

	ServerCPUPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "serverpilot_server_cpu_percent",
			Help: "CPU usage of the managed server process in percent",
		},
	)

	ServerMemoryRSSBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "serverpilot_server_memory_rss_bytes",
			Help: "Resident memory of the managed server process in bytes",
		},
	)

	// Maintenance Cycle Metrics
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serverpilot_cycles_total",
			Help: "Total number of maintenance cycles",
		},
		[]string{"cooldown"}, // "active", "inactive"
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "serverpilot_cycle_duration_seconds",
			Help:    "Duration of maintenance cycles in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	CycleLastTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "serverpilot_cycle_last_timestamp_seconds",
			Help: "Unix timestamp of the last completed maintenance cycle",
		},
	)

	JobOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serverpilot_job_outcomes_total",
			Help: "Total number of finished jobs by name and outcome",
		},
		[]string{"job", "outcome"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "serverpilot_job_duration_seconds",
			Help:    "Duration of maintenance jobs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		},
		[]string{"job"},
	)

	// Update Resolution Metrics
	SearchResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serverpilot_search_results_total",
			Help: "Total number of remote searches by source and classification",
		},
		[]string{"source", "classification"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "serverpilot_search_duration_seconds",
			Help:    "Duration of remote searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	UpdatesAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "serverpilot_updates_available",
			Help: "Number of updates found but not installed, by updater",
		},
		[]string{"updater"},
	)

	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serverpilot_downloads_total",
			Help: "Total number of artifact downloads by result",
		},
		[]string{"result"}, // "installed", "staged", "notified", "failed"
	)

	DownloadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "serverpilot_download_bytes_total",
			Help: "Total bytes downloaded from remote sources",
		},
	)

	// Backup Metrics
	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serverpilot_backups_total",
			Help: "Total number of backups by result",
		},
		[]string{"result"},
	)

	BackupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "serverpilot_backup_duration_seconds",
			Help:    "Duration of backup creation in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800},
		},
	)

	BackupSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "serverpilot_backup_last_size_bytes",
			Help: "Size of the most recent backup archive in bytes",
		},
	)

	BackupsPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "serverpilot_backups_pruned_total",
			Help: "Total number of backups removed by retention",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serverpilot_api_requests_total",
			Help: "Total number of status API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "serverpilot_api_request_duration_seconds",
			Help:    "Status API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// SetServerRunning updates the running gauge.
func SetServerRunning(running bool) {
	if running {
		ServerRunning.Set(1)
	} else {
		ServerRunning.Set(0)
	}
}

// RecordServerExit records how the managed process ended.
func RecordServerExit(kind string) {
	ServerExitsTotal.WithLabelValues(kind).Inc()
}

// RecordServerCommand records a submitted command.
func RecordServerCommand(sent bool) {
	if sent {
		ServerCommandsTotal.WithLabelValues("sent").Inc()
	} else {
		ServerCommandsTotal.WithLabelValues("dropped").Inc()
	}
}

// RecordProcessStats updates the managed process resource gauges.
func RecordProcessStats(cpuPercent float64, rssBytes uint64) {
	ServerCPUPercent.Set(cpuPercent)
	ServerMemoryRSSBytes.Set(float64(rssBytes))
}

// RecordCycle records a finished maintenance cycle.
func RecordCycle(duration time.Duration, cooldownActive bool) {
	label := "inactive"
	if cooldownActive {
		label = "active"
	}
	CyclesTotal.WithLabelValues(label).Inc()
	CycleDuration.Observe(duration.Seconds())
	CycleLastTimestamp.Set(float64(time.Now().Unix()))
}

// RecordJob records a job reaching a terminal outcome.
func RecordJob(job, outcome string, duration time.Duration) {
	JobOutcomesTotal.WithLabelValues(job, outcome).Inc()
	JobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// RecordSearch records one remote search.
func RecordSearch(source, classification string, duration time.Duration) {
	SearchResultsTotal.WithLabelValues(source, classification).Inc()
	SearchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordDownload records a download task result and transferred bytes.
func RecordDownload(result string, bytes int64) {
	DownloadsTotal.WithLabelValues(result).Inc()
	if bytes > 0 {
		DownloadBytesTotal.Add(float64(bytes))
	}
}

// RecordBackup records a backup attempt.
func RecordBackup(duration time.Duration, sizeBytes int64, err error) {
	BackupDuration.Observe(duration.Seconds())
	if err != nil {
		BackupsTotal.WithLabelValues("failure").Inc()
		return
	}
	BackupsTotal.WithLabelValues("success").Inc()
	BackupSizeBytes.Set(float64(sizeBytes))
}

// RecordAPIRequest records a status API request metric
func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
