// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tomtom215/serverpilot/internal/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Inspect server backups",
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		m, err := backup.NewManager(cfg)
		if err != nil {
			return err
		}
		backups, err := m.List()
		if err != nil {
			return err
		}
		printBackups(cmd.OutOrStdout(), backups)
		return nil
	},
}

var backupVerifyCmd = &cobra.Command{
	Use:   "verify FILE",
	Short: "Check every file in a backup against its recorded checksum",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := backup.Verify(args[0])
		if err != nil {
			return err
		}
		cmd.Printf("%s: %d files verified (backup %s from %s)\n",
			args[0], b.FileCount, b.ID, b.CreatedAt.Local().Format(time.DateTime))
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupListCmd, backupVerifyCmd)
}

func printBackups(w io.Writer, backups []*backup.Backup) {
	if len(backups) == 0 {
		_, _ = fmt.Fprintln(w, "No backups found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CREATED\tID\tSIZE\tFILE")
	for _, b := range backups {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			b.CreatedAt.Local().Format(time.DateTime), b.ID, humanize.IBytes(uint64(b.SizeBytes)), b.FileName)
	}
	_ = tw.Flush()
}
