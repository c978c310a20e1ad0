package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newActivityCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent catalogue activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			audit, err := ctx.activityLog()
			if err != nil {
				return err
			}
			entries, err := audit.ReadRecent(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No activity recorded.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				subject := entry.Title
				if subject == "" {
					subject = entry.ISBN
				}
				rows = append(rows, []string{
					entry.Time().Format("2006-01-02 15:04"),
					entry.Action,
					subject,
					summarizeDetails(entry.Details),
				})
			}
			fmt.Fprintln(out, renderTable(textColumns("When", "Action", "Subject", "Details"), rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	return cmd
}

func summarizeDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for key := range details {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, details[key]))
	}
	return strings.Join(parts, " ")
}
