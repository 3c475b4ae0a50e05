// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package process

import "strings"

// SplitCommand splits a start command on spaces. Double-quoted sections stay
// together and the quotes are removed, so
//
//	"/opt/my java/bin/java" -Xmx2G -jar server.jar
//
// yields four arguments.
func SplitCommand(command string) []string {
	var (
		args    []string
		current strings.Builder
		quoted  bool
		pending bool
	)

	for _, r := range command {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case (r == ' ' || r == '\t') && !quoted:
			if pending {
				args = append(args, current.String())
				current.Reset()
				pending = false
			}
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	if pending {
		args = append(args, current.String())
	}
	return args
}
