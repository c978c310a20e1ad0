package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"oakwood/internal/activity"
	"oakwood/internal/catalog"
	"oakwood/internal/services"
)

// bookFields holds the flag values shared by books add and books edit.
// Edit only applies flags the user actually passed.
type bookFields struct {
	title       string
	subtitle    string
	authors     string
	shelf       string
	publisher   string
	published   string
	pages       int
	categories  string
	description string
	format      string
	language    string
	series      string
	volume      string
	copies      int
	read        bool
	wishlist    bool
	signed      bool
}

func (f *bookFields) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.title, "title", "", "Book title")
	flags.StringVar(&f.subtitle, "subtitle", "", "Subtitle")
	flags.StringVar(&f.authors, "authors", "", "Authors, comma separated")
	flags.StringVar(&f.shelf, "shelf", "", "Bookshelf name")
	flags.StringVar(&f.publisher, "publisher", "", "Publisher")
	flags.StringVar(&f.published, "published", "", "Publication date (YYYY-MM-DD, empty clears)")
	flags.IntVar(&f.pages, "pages", 0, "Page count")
	flags.StringVar(&f.categories, "categories", "", "Categories, comma separated")
	flags.StringVar(&f.description, "description", "", "Description")
	flags.StringVar(&f.format, "format", "", "Format (hardcover, paperback, ...)")
	flags.StringVar(&f.language, "language", "", "Language")
	flags.StringVar(&f.series, "series", "", "Series name")
	flags.StringVar(&f.volume, "volume", "", "Volume within the series")
	flags.IntVar(&f.copies, "copies", 1, "Number of copies")
	flags.BoolVar(&f.read, "read", false, "Mark as read")
	flags.BoolVar(&f.wishlist, "wishlist", false, "Mark as a wishlist entry")
	flags.BoolVar(&f.signed, "signed", false, "Mark as a signed copy")
}

func (f *bookFields) publishedAt() (*time.Time, error) {
	raw := strings.TrimSpace(f.published)
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "books", "edit",
			fmt.Sprintf("publication date %q must be YYYY-MM-DD", raw), nil)
	}
	ts = ts.UTC()
	return &ts, nil
}

// patch maps the flags the user set onto storage columns.
func (f *bookFields) patch(flags *pflag.FlagSet) (map[string]any, error) {
	patch := map[string]any{}
	set := func(flag, column string, value any) {
		if flags.Changed(flag) {
			patch[column] = value
		}
	}
	set("title", "title", strings.TrimSpace(f.title))
	set("subtitle", "subtitle", f.subtitle)
	set("authors", "authors", f.authors)
	set("shelf", "bookshelf", f.shelf)
	set("publisher", "publisher", f.publisher)
	set("pages", "page_count", f.pages)
	set("categories", "categories", f.categories)
	set("description", "description", f.description)
	set("format", "format", f.format)
	set("language", "language", f.language)
	set("series", "series", f.series)
	set("volume", "volume", f.volume)
	set("copies", "number_of_copies", f.copies)
	set("read", "read", f.read)
	set("wishlist", "wishlist", f.wishlist)
	set("signed", "signed", f.signed)
	if flags.Changed("published") {
		ts, err := f.publishedAt()
		if err != nil {
			return nil, err
		}
		patch["published_at"] = ts
	}
	return patch, nil
}

func newBooksAddCommand(ctx *commandContext) *cobra.Command {
	var fields bookFields

	cmd := &cobra.Command{
		Use:   "add <isbn>",
		Short: "Add a book to the catalogue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			isbn := strings.TrimSpace(args[0])
			title := strings.TrimSpace(fields.title)
			if title == "" {
				return services.Wrap(services.ErrValidation, "books", "add", "--title is required", nil)
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			exists, err := store.Exists(cmd.Context(), isbn)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("a book with isbn %s is already catalogued", isbn)
			}

			publishedAt, err := fields.publishedAt()
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			book := &catalog.Book{
				BookID:         uuid.NewString(),
				ISBN:           isbn,
				Title:          title,
				Subtitle:       fields.subtitle,
				Authors:        fields.authors,
				Bookshelf:      fields.shelf,
				Publisher:      fields.publisher,
				PublishedAt:    publishedAt,
				PageCount:      fields.pages,
				Categories:     fields.categories,
				Description:    fields.description,
				Format:         fields.format,
				Language:       fields.language,
				Series:         fields.series,
				Volume:         fields.volume,
				NumberOfCopies: fields.copies,
				Read:           fields.read,
				Wishlist:       fields.wishlist,
				Signed:         fields.signed,
				DateAdded:      &now,
			}
			if err := store.Insert(cmd.Context(), book); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added %s (%s).\n", book.Title, isbn)
			appendAudit(ctx, out, activity.Entry{
				Action: activity.ActionCreate,
				Source: "books",
				ISBN:   isbn,
				Title:  book.Title,
			})
			return nil
		},
	}
	fields.register(cmd.Flags())
	return cmd
}

func newBooksEditCommand(ctx *commandContext) *cobra.Command {
	var fields bookFields

	cmd := &cobra.Command{
		Use:   "edit <isbn>",
		Short: "Edit fields of a catalogued book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			isbn := strings.TrimSpace(args[0])
			patch, err := fields.patch(cmd.Flags())
			if err != nil {
				return err
			}
			if len(patch) == 0 {
				return services.Wrap(services.ErrValidation, "books", "edit",
					"nothing to change; pass at least one field flag", nil)
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ok, err := store.UpdateFields(cmd.Context(), isbn, patch)
			if err != nil {
				return err
			}
			if !ok {
				return services.Wrap(services.ErrNotFound, "books", "edit",
					fmt.Sprintf("no catalogue record for isbn %s", isbn), nil)
			}

			book, err := store.GetByISBN(cmd.Context(), isbn)
			if err != nil {
				return err
			}

			columns := make([]string, 0, len(patch))
			for column := range patch {
				columns = append(columns, column)
			}
			sort.Strings(columns)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Updated %s: %s.\n", isbn, strings.Join(columns, ", "))
			entry := activity.Entry{
				Action:  activity.ActionEdit,
				Source:  "books",
				ISBN:    isbn,
				Details: map[string]any{"fields": columns},
			}
			if book != nil {
				entry.Title = book.Title
			}
			appendAudit(ctx, out, entry)
			return nil
		},
	}
	fields.register(cmd.Flags())
	return cmd
}

// appendAudit writes a best-effort activity entry; a failure warns rather
// than failing the command, since the data change already happened.
func appendAudit(ctx *commandContext, out io.Writer, entry activity.Entry) {
	audit, err := ctx.activityLog()
	if err == nil {
		err = audit.Append(entry)
	}
	if err != nil {
		fmt.Fprintf(out, "Warning: activity log entry failed: %v\n", err)
	}
}
