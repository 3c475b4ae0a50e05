// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package updater

import (
	"github.com/tomtom215/serverpilot/internal/config"
	"github.com/tomtom215/serverpilot/internal/updater/remote"
)

// Clients holds one remote client per update source. They live for the whole
// agent run so breaker state carries over between cycles.
type Clients struct {
	Jenkins   *remote.Client
	Spiget    *remote.Client
	Bukkit    *remote.Client
	Modrinth  *remote.Client
	Paper     *remote.Client
	Adoptium  *remote.Client
	GitHub    *remote.Client
	Downloads *remote.Client
}

// NewClients creates the clients from the remote configuration.
func NewClients(cfg config.RemoteConfig) *Clients {
	return &Clients{
		Jenkins:   remote.NewClient("jenkins", cfg),
		Spiget:    remote.NewClient("spiget", cfg),
		Bukkit:    remote.NewClient("bukkit", cfg),
		Modrinth:  remote.NewClient("modrinth", cfg),
		Paper:     remote.NewClient("paper", cfg),
		Adoptium:  remote.NewClient("adoptium", cfg),
		GitHub:    remote.NewClient("github", cfg),
		Downloads: remote.NewClient("downloads", cfg),
	}
}
