package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"oakwood/internal/activity"
	"oakwood/internal/catalog"
	"oakwood/internal/config"
	"oakwood/internal/importer"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "import <csv>",
		Short: "Import a Bookshelf CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var onBook importer.ProgressFunc
			if !quiet {
				onBook = func(book *catalog.Book, added bool) {
					status := "skipped"
					if added {
						status = "added"
					}
					fmt.Fprintf(out, "%-8s %s\n", status, book.DisplayTitle(60))
				}
			}

			result, err := importer.ImportCSV(cmd.Context(), store, path, onBook)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Import complete: %d added, %d skipped.\n", result.Added, result.Skipped)

			audit, err := ctx.activityLog()
			if err != nil {
				return err
			}
			entry := activity.Entry{
				Action: activity.ActionImport,
				Source: "import",
				Details: map[string]any{
					"file":    path,
					"added":   result.Added,
					"skipped": result.Skipped,
				},
			}
			if err := audit.Append(entry); err != nil {
				fmt.Fprintf(out, "Warning: activity log entry failed: %v\n", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress per-row progress output")
	return cmd
}
