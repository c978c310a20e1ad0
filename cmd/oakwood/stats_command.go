package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalogue statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			total, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			shelves, err := store.ShelfCounts(cmd.Context())
			if err != nil {
				return err
			}
			formats, err := store.FormatCounts(cmd.Context())
			if err != nil {
				return err
			}
			last, err := store.LastAdded(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total books: %d\n", total)
			if last != nil {
				fmt.Fprintf(out, "Last added:  %s\n", formatDate(last))
			}

			if len(shelves) > 0 {
				fmt.Fprintln(out, "\nBy bookshelf:")
				fmt.Fprintln(out, renderCountTable("Bookshelf", shelves))
			}
			if len(formats) > 0 {
				fmt.Fprintln(out, "\nBy format:")
				fmt.Fprintln(out, renderCountTable("Format", formats))
			}

			health, err := store.CheckHealth(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nDatabase: %s (integrity %s)\n", health.DBPath, okLabel(health.IntegrityOK))
			return nil
		},
	}
}

func renderCountTable(label string, counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, strconv.Itoa(counts[name])})
	}
	return renderTable([]tableColumn{{Title: label}, {Title: "Books", Numeric: true}}, rows)
}
