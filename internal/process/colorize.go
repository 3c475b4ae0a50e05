// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package process

import (
	"strings"

	"github.com/fatih/color"
)

// Severity is the keyword-derived level of a server output line.
type Severity int

const (
	SeverityPlain Severity = iota
	SeverityDebug
	SeverityWarn
	SeverityError
)

var (
	errorColor = color.New(color.FgRed)
	warnColor  = color.New(color.FgYellow)
	debugColor = color.New(color.FgCyan)
)

// LineSeverity classifies a line by case-insensitive keywords. Error keywords
// win over warn keywords, which win over debug.
func LineSeverity(line string) Severity {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "error"),
		strings.Contains(lower, "critical"),
		strings.Contains(lower, "exception"):
		return SeverityError
	case strings.Contains(lower, "warn"):
		return SeverityWarn
	case strings.Contains(lower, "debug"):
		return SeverityDebug
	default:
		return SeverityPlain
	}
}

// Colorize wraps line in the ANSI color of its severity. fatih/color strips
// the codes again when stdout is not a terminal.
func Colorize(line string) string {
	switch LineSeverity(line) {
	case SeverityError:
		return errorColor.Sprint(line)
	case SeverityWarn:
		return warnColor.Sprint(line)
	case SeverityDebug:
		return debugColor.Sprint(line)
	default:
		return line
	}
}
