package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"oakwood/internal/catalog"
	"oakwood/internal/services"
)

func newBooksCommand(ctx *commandContext) *cobra.Command {
	booksCmd := &cobra.Command{
		Use:   "books",
		Short: "Browse the catalogue",
	}

	booksCmd.AddCommand(newBooksAddCommand(ctx))
	booksCmd.AddCommand(newBooksEditCommand(ctx))
	booksCmd.AddCommand(newBooksListCommand(ctx))
	booksCmd.AddCommand(newBooksShowCommand(ctx))
	booksCmd.AddCommand(newBooksSearchCommand(ctx))

	return booksCmd
}

func newBooksListCommand(ctx *commandContext) *cobra.Command {
	var shelf string
	var byAdded bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogued books",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var books []*catalog.Book
			if byAdded {
				books, err = store.ListByDateAdded(cmd.Context())
			} else {
				books, err = store.List(cmd.Context(), strings.TrimSpace(shelf))
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(books) == 0 {
				fmt.Fprintln(out, "No books found.")
				return nil
			}
			fmt.Fprintln(out, renderBookTable(books))
			fmt.Fprintf(out, "%d book(s)\n", len(books))
			return nil
		},
	}

	cmd.Flags().StringVar(&shelf, "shelf", "", "Only show books on this bookshelf")
	cmd.Flags().BoolVar(&byAdded, "recent", false, "Order by date added, newest first")
	return cmd
}

func newBooksShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <isbn>",
		Short: "Show one book in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			isbn := strings.TrimSpace(args[0])
			book, err := store.GetByISBN(cmd.Context(), isbn)
			if err != nil {
				return err
			}
			if book == nil {
				return services.Wrap(services.ErrNotFound, "books", "show",
					fmt.Sprintf("no catalogue record for isbn %s", isbn), nil)
			}

			printBook(cmd, book)
			return nil
		},
	}
}

func newBooksSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search titles, authors, and ISBNs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			books, err := store.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(books) == 0 {
				fmt.Fprintln(out, "No matches.")
				return nil
			}
			fmt.Fprintln(out, renderBookTable(books))
			fmt.Fprintf(out, "%d match(es)\n", len(books))
			return nil
		},
	}
}

func renderBookTable(books []*catalog.Book) string {
	rows := make([][]string, 0, len(books))
	for _, book := range books {
		rows = append(rows, []string{
			book.ISBN,
			book.DisplayTitle(48),
			book.DisplayAuthors(32),
			book.Bookshelf,
			yesNo(book.Verified),
		})
	}
	return renderTable(textColumns("ISBN", "Title", "Authors", "Shelf", "Verified"), rows)
}

func printBook(cmd *cobra.Command, book *catalog.Book) {
	out := cmd.OutOrStdout()

	lines := []struct {
		label string
		value string
	}{
		{"ISBN", book.ISBN},
		{"Title", book.FullTitle()},
		{"Authors", book.Authors},
		{"Bookshelf", book.Bookshelf},
		{"Format", book.Format},
		{"Publisher", book.Publisher},
		{"Published", formatDate(book.PublishedAt)},
		{"Pages", nonZero(book.PageCount)},
		{"Categories", book.Categories},
		{"Language", book.Language},
		{"Series", seriesLabel(book)},
		{"Copies", strconv.Itoa(book.NumberOfCopies)},
		{"Read", yesNo(book.Read)},
		{"Wishlist", yesNo(book.Wishlist)},
		{"Signed", yesNo(book.Signed)},
		{"Added", formatDate(book.DateAdded)},
		{"Verified", yesNo(book.Verified)},
		{"Last verified", formatDate(book.LastVerified)},
	}
	for _, line := range lines {
		if line.value == "" {
			continue
		}
		fmt.Fprintf(out, "%-14s %s\n", line.label+":", line.value)
	}
	if book.Description != "" {
		fmt.Fprintf(out, "\n%s\n", book.Description)
	}
}

func seriesLabel(book *catalog.Book) string {
	if book.Series == "" {
		return ""
	}
	if book.Volume == "" {
		return book.Series
	}
	return fmt.Sprintf("%s, vol. %s", book.Series, book.Volume)
}

func nonZero(value int) string {
	if value <= 0 {
		return ""
	}
	return strconv.Itoa(value)
}
