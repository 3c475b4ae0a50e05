// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package download

import "strings"

// Policy decides how far an update goes.
type Policy string

const (
	PolicyNotify    Policy = "notify"
	PolicyManual    Policy = "manual"
	PolicyAutomatic Policy = "automatic"
)

// ParsePolicy maps a configured value onto a Policy. Unknown values fall back
// to notify so that a typo never installs anything.
func ParsePolicy(s string) Policy {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyManual, PolicyAutomatic:
		return p
	default:
		return PolicyNotify
	}
}

// Downloads reports whether the policy fetches artifacts.
func (p Policy) Downloads() bool { return p == PolicyManual || p == PolicyAutomatic }

// Installs reports whether the policy replaces installed files.
func (p Policy) Installs() bool { return p == PolicyAutomatic }

// Label is the upper-case form shown to operators.
func (p Policy) Label() string { return strings.ToUpper(string(p)) }
