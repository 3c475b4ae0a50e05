// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

/*
Package remote provides the HTTP client shared by every update source.

Each source (Jenkins, Spiget, Bukkit, Modrinth, Paper, Adoptium, GitHub)
gets its own Client so that one misbehaving marketplace cannot trip the
breaker of another.

Resilience Mechanisms:
  - Circuit Breaker: sony/gobreaker, opens at >= 60% failures over >= 10 requests
  - Rate Limiting: golang.org/x/time/rate token bucket per source
  - Retries: cenkalti/backoff exponential backoff on 429, 5xx and transport errors
  - Retry-After: honored when the server sends it (seconds)
  - Context: every request is bound to the caller's context

Usage:

	c := remote.NewClient("spiget", cfg.Remote)
	var res spigetResource
	if err := c.GetJSON(ctx, "https://api.spiget.org/v2/resources/1234", &res); err != nil {
	    return err
	}
*/
package remote
