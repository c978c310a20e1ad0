package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"oakwood/internal/catalog"
)

// ProgressFunc is invoked once per CSV row with the parsed book and
// whether it was inserted.
type ProgressFunc func(book *catalog.Book, added bool)

// Result summarizes one import run.
type Result struct {
	Added   int
	Skipped int
}

// ImportCSV reads a Bookshelf CSV export and inserts new books. Rows
// without an ISBN, and rows whose ISBN is already catalogued, are skipped.
// Rows missing a Book Id get a generated one.
func ImportCSV(ctx context.Context, store *catalog.Store, path string, onBook ProgressFunc) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()
	return importFrom(ctx, store, file, onBook)
}

func importFrom(ctx context.Context, store *catalog.Store, r io.Reader, onBook ProgressFunc) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	var result Result
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("read csv row: %w", err)
		}

		row := rowReader{columns: columns, record: record}
		book := rowToBook(row)

		if book.ISBN == "" {
			result.Skipped++
			notify(onBook, book, false)
			continue
		}
		exists, err := store.Exists(ctx, book.ISBN)
		if err != nil {
			return result, fmt.Errorf("check duplicate isbn %s: %w", book.ISBN, err)
		}
		if exists {
			result.Skipped++
			notify(onBook, book, false)
			continue
		}

		if err := store.Insert(ctx, book); err != nil {
			return result, fmt.Errorf("insert isbn %s: %w", book.ISBN, err)
		}
		result.Added++
		notify(onBook, book, true)
	}
	return result, nil
}

func notify(onBook ProgressFunc, book *catalog.Book, added bool) {
	if onBook != nil {
		onBook(book, added)
	}
}

type rowReader struct {
	columns map[string]int
	record  []string
}

func (r rowReader) str(column string) string {
	idx, ok := r.columns[column]
	if !ok || idx >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[idx])
}

func (r rowReader) num(column string) int {
	value, err := strconv.Atoi(r.str(column))
	if err != nil {
		return 0
	}
	return value
}

func (r rowReader) flag(column string) bool {
	switch strings.ToLower(r.str(column)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func (r rowReader) date(column string) *time.Time {
	value := r.str(column)
	if value == "" {
		return nil
	}
	ts, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	ts = ts.UTC()
	return &ts
}

// rowToBook maps Bookshelf export column names onto a catalogue row.
func rowToBook(row rowReader) *catalog.Book {
	bookID := row.str("Book Id")
	if bookID == "" {
		bookID = uuid.NewString()
	}
	copies := row.num("Number of copies")
	if copies < 1 {
		copies = 1
	}
	return &catalog.Book{
		BookID:         bookID,
		ISBN:           row.str("ISBN"),
		Title:          row.str("Title"),
		Bookshelf:      row.str("Bookshelf"),
		DateAdded:      row.date("Date added"),
		Wishlist:       row.flag("Wishlist"),
		Read:           row.flag("Read"),
		PagesRead:      row.num("Pages Read"),
		NumberOfCopies: copies,
		Signed:         row.flag("Signed"),
		Authors:        row.str("Authors"),
		Language:       row.str("Language"),
		PublishedAt:    row.date("Published At"),
		Publisher:      row.str("Publisher"),
		PageCount:      row.num("Page Count"),
		Description:    row.str("Description"),
		Categories:     row.str("Categories"),
		Format:         row.str("Format"),
		Subtitle:       row.str("Subtitle"),
		Series:         row.str("Series"),
		Volume:         row.str("Volume"),
		Editors:        row.str("Editors"),
		Translators:    row.str("Translators"),
		Illustrators:   row.str("Illustrators"),
	}
}
