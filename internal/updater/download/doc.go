// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

// Package download implements the download/install task shared by every
// updater.
//
// A Task runs as its own job. Its update policy decides how far it goes:
//
//	notify     report only; the job ends unsuccessful without any request
//	manual     download into serverpilot/downloads and stop there
//	automatic  download, then replace the installed file and remove the
//	           superseded one
//
// Responses are validated before anything is written: a non-200 status, an
// empty body, a missing content type, a content type outside application/*
// and (unless ignored) a subtype other than java-archive, jar or
// octet-stream are distinct ValidationError kinds. Marketplaces that answer
// with an HTML error page and status 200 are caught by the content type
// checks.
package download
