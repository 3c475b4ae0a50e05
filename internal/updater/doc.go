// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

/*
Package updater contains the four update jobs of the maintenance cycle and
the recurring update checker.

Jobs:
  - JavaUpdater: newest Temurin JDK of the configured feature version (Adoptium)
  - ServerUpdater: newest Paper build, or newest build of a Jenkins project
  - PluginsUpdater: every plugins/*.jar, resolved through Jenkins, SpigotMC
    (Spiget) or BukkitDev
  - ModsUpdater: every mods/*.jar with a fabric.mod.json, resolved through Modrinth

Each job resolves versions with package search and starts one download job
per update (package download) in the same cycle, then waits for those
downloads to record installed builds in the state store. A failing plugin or
mod is a job warning; the job only fails when every check failed.

The Checker is a supervised service that repeats the plugin and server
checks while the server runs. It never downloads; it only logs and updates
the serverpilot_updates_available gauge.
*/
package updater
