package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"oakwood/internal/activity"
	"oakwood/internal/backup"
	"oakwood/internal/config"
)

func newBackupCommand(ctx *commandContext) *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage catalogue backups",
	}

	backupCmd.AddCommand(newBackupCreateCommand(ctx))
	backupCmd.AddCommand(newBackupListCommand(ctx))
	backupCmd.AddCommand(newBackupRestoreCommand(ctx))

	return backupCmd
}

func backupManager(ctx *commandContext) (*backup.Manager, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return backup.NewManager(cfg), nil
}

func newBackupCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Archive the database and covers",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := backupManager(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			info, err := manager.Create(func(msg string) {
				fmt.Fprintln(out, msg)
			})
			if err != nil {
				return err
			}

			audit, err := ctx.activityLog()
			if err != nil {
				return err
			}
			entry := activity.Entry{
				Action: activity.ActionBackup,
				Source: "backup",
				Details: map[string]any{
					"file":       info.Filename,
					"size_bytes": info.SizeBytes,
				},
			}
			if err := audit.Append(entry); err != nil {
				fmt.Fprintf(out, "Warning: activity log entry failed: %v\n", err)
			}
			return nil
		},
	}
}

func newBackupListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List existing backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := backupManager(ctx)
			if err != nil {
				return err
			}
			backups, err := manager.List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintln(out, "No backups found.")
				return nil
			}

			rows := make([][]string, 0, len(backups))
			for i, info := range backups {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					info.Filename,
					backup.FormatSize(info.SizeBytes),
					info.Created.Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]tableColumn{
					{Title: "#", Numeric: true},
					{Title: "Archive"},
					{Title: "Size", Numeric: true},
					{Title: "Created"},
				},
				rows,
			))
			return nil
		},
	}
}

func newBackupRestoreCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <archive|number>",
		Short: "Restore a backup over the current catalogue",
		Long: "Restore a backup archive by path, or by its number from `oakwood backup list`.\n" +
			"The current database is kept alongside with a .pre-restore suffix.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := backupManager(ctx)
			if err != nil {
				return err
			}

			target, err := resolveBackupTarget(manager, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := manager.Restore(target, func(msg string) {
				fmt.Fprintln(out, msg)
			}); err != nil {
				return err
			}

			audit, err := ctx.activityLog()
			if err != nil {
				return err
			}
			entry := activity.Entry{
				Action:  activity.ActionRestore,
				Source:  "backup",
				Details: map[string]any{"file": target},
			}
			if err := audit.Append(entry); err != nil {
				fmt.Fprintf(out, "Warning: activity log entry failed: %v\n", err)
			}
			return nil
		},
	}
}

func resolveBackupTarget(manager *backup.Manager, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if number, err := strconv.Atoi(arg); err == nil {
		backups, err := manager.List()
		if err != nil {
			return "", err
		}
		if number < 1 || number > len(backups) {
			return "", fmt.Errorf("backup %d out of range (%d backups exist)", number, len(backups))
		}
		return backups[number-1].Path, nil
	}
	return config.ExpandPath(arg)
}
