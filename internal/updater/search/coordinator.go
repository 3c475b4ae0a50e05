// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package search

import (
	"context"
	"strings"
)

// Plugin is what a marketplace search knows about an installed plugin.
type Plugin struct {
	Name    string
	Version string
	Author  string

	SpigotID int
	BukkitID int
}

// Coordinator picks the marketplace search for a plugin: explicit SpigotMC
// id, then explicit BukkitDev id, then a name/author heuristic.
type Coordinator struct {
	spiget *SpigetSearcher
	bukkit *BukkitSearcher
}

// NewCoordinator creates a coordinator over the two marketplaces.
func NewCoordinator(spiget *SpigetSearcher, bukkit *BukkitSearcher) *Coordinator {
	return &Coordinator{spiget: spiget, bukkit: bukkit}
}

// Search returns exactly one Result for p.
func (c *Coordinator) Search(ctx context.Context, p Plugin) Result {
	switch {
	case p.SpigotID > 0:
		return c.SearchByID(ctx, p)
	case p.BukkitID > 0:
		return c.SearchByBukkitID(ctx, p)
	default:
		return c.UnknownSearch(ctx, p)
	}
}

// SearchByID resolves p through its SpigotMC id.
func (c *Coordinator) SearchByID(ctx context.Context, p Plugin) Result {
	return c.spiget.ByID(ctx, p.SpigotID, p.Version)
}

// SearchByBukkitID resolves p through its BukkitDev id.
func (c *Coordinator) SearchByBukkitID(ctx context.Context, p Plugin) Result {
	return c.bukkit.ByID(ctx, p.BukkitID, p.Version)
}

// UnknownSearch normalizes version and author, searches by name and falls
// back to a search by author when the name search finds nothing usable.
func (c *Coordinator) UnknownSearch(ctx context.Context, p Plugin) Result {
	p.Version = NormalizeVersion(p.Version)
	p.Author = NormalizeAuthor(p.Author)
	p.Name = strings.ReplaceAll(p.Name, ":", "")

	res := c.spiget.ByName(ctx, p)
	if res.Classification == NotFound || res.Classification == Ambiguous {
		return c.spiget.ByAuthor(ctx, p)
	}
	return res
}
