// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

/*
Package middleware provides the HTTP middleware of the status API.

Components:

  - RequestID: X-Request-ID propagation for log correlation
  - PrometheusMetrics: request counters and latency histograms per chi route
  - BearerToken: constant-time check of the configured API token

Stack used by the API router:

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(httprate.LimitByIP(n, window))
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.BearerToken(token))
*/
package middleware
