package testsupport

import (
	"context"
	"testing"
	"time"

	"oakwood/internal/catalog"
	"oakwood/internal/config"
)

// MustOpenStore opens a catalogue store against the test config and closes
// it when the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("open catalogue store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close catalogue store: %v", err)
		}
	})
	return store
}

// SeedBook inserts a book with sensible defaults, applying any mutators
// first, and returns the stored row.
func SeedBook(t testing.TB, store *catalog.Store, isbn string, mutate ...func(*catalog.Book)) *catalog.Book {
	t.Helper()

	published := time.Date(2005, time.March, 21, 0, 0, 0, 0, time.UTC)
	book := &catalog.Book{
		BookID:         "book-" + isbn,
		ISBN:           isbn,
		Title:          "The Dispossessed",
		Bookshelf:      "Fiction",
		Authors:        "Ursula K. Le Guin",
		Publisher:      "Harper & Row",
		PageCount:      341,
		PublishedAt:    &published,
		Categories:     "Science Fiction",
		Description:    "An ambiguous utopia.",
		NumberOfCopies: 1,
	}
	for _, fn := range mutate {
		fn(book)
	}

	ctx := context.Background()
	if err := store.Insert(ctx, book); err != nil {
		t.Fatalf("seed book %s: %v", isbn, err)
	}
	stored, err := store.GetByISBN(ctx, book.ISBN)
	if err != nil {
		t.Fatalf("read back seeded book %s: %v", isbn, err)
	}
	if stored == nil {
		t.Fatalf("seeded book %s not found", isbn)
	}
	return stored
}
