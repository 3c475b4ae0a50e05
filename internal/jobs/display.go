// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package jobs

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

// DisplayMode selects how job progress is presented.
type DisplayMode int

const (
	// DisplayLive prints job updates while they happen.
	DisplayLive DisplayMode = iota
	// DisplayBatch prints only the final summary.
	DisplayBatch
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
)

// Display renders an Orchestrator's jobs to a writer.
type Display struct {
	out      io.Writer
	mode     DisplayMode
	interval time.Duration
}

// NewDisplay creates a display. interval is the live refresh period.
func NewDisplay(out io.Writer, mode DisplayMode, interval time.Duration) *Display {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Display{out: out, mode: mode, interval: interval}
}

// Mode returns the display mode.
func (d *Display) Mode() DisplayMode { return d.mode }

// Live prints a line whenever a job's status or progress changes, until
// every job of o is terminal or ctx is done. Jobs started while Live runs
// are picked up. The returned channel is closed when rendering stopped.
func (d *Display) Live(ctx context.Context, o *Orchestrator, moreJobs <-chan struct{}) <-chan struct{} {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		last := map[string]string{}
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			// moreJobs is closed once the pipeline started its last job.
			finished := isClosed(moreJobs) && o.AllFinished()
			for _, s := range o.Report().Jobs {
				line := renderLine(s)
				if last[s.Name] != line {
					last[s.Name] = line
					_, _ = fmt.Fprintln(d.out, line) //nolint:errcheck // console output
				}
			}
			if finished {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return stopped
}

func isClosed(ch <-chan struct{}) bool {
	if ch == nil {
		return true
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// PrintSummary prints one line per job and the failure details.
func (d *Display) PrintSummary(r Report) {
	var b strings.Builder
	fmt.Fprintf(&b, "Finished %d job(s): %d successful, %d unsuccessful, %d skipped, %d failed.\n",
		len(r.Jobs), r.Count(Success), r.Count(Unsuccessful), r.Count(Skipped), len(r.Failed()))
	for _, s := range r.Jobs {
		b.WriteString(renderLine(s))
		b.WriteByte('\n')
		for _, w := range s.Warnings {
			fmt.Fprintf(&b, "  %s %s\n", warnColor.Sprint("warning:"), w)
		}
		if s.Err != nil {
			fmt.Fprintf(&b, "  %s %v\n", failColor.Sprint("error:"), s.Err)
		}
	}
	_, _ = io.WriteString(d.out, b.String()) //nolint:errcheck // console output
}

func renderLine(s Snapshot) string {
	progress := ""
	if p := s.Percent(); p >= 0 {
		progress = fmt.Sprintf(" %3d%%", p)
	}

	tag := ""
	switch s.Outcome {
	case NotFinished:
		tag = "[..]"
	case Success:
		tag = okColor.Sprint("[OK]")
	case Unsuccessful, Skipped:
		tag = warnColor.Sprint("[--]")
	case Failed, Interrupted:
		tag = failColor.Sprint("[!!]")
	}
	return fmt.Sprintf("%s [%s]%s %s", tag, s.Name, progress, s.Status)
}
