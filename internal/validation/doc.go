// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is built once (it caches struct metadata) with
// the agent-specific rules registered. Field names in error messages follow the
// koanf tag of each field, so a failure reads the same way the operator wrote
// the configuration:
//
//	restarter.daily.times[0] must be a time of day formatted as HH:MM
//
// # Custom Tags
//
//	hhmm      24h time of day ("04:30")
//	cronspec  five-field cron expression or descriptor ("0 */6 * * *", "@daily")
//	policy    update policy: notify, manual or automatic
//
// # Usage
//
//	type Request struct {
//	    Command string `json:"command" validate:"required,max=512"`
//	}
//	if err := validation.ValidateStruct(&req); err != nil {
//	    var verrs validation.Errors
//	    errors.As(err, &verrs)
//	}
package validation
