package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"oakwood/internal/catalog"
	"oakwood/internal/importer"
	"oakwood/internal/testsupport"
)

const sampleCSV = `Book Id,ISBN,Title,Bookshelf,Date added,Wishlist,Read,Pages Read,Number of copies,Signed,Authors,Language,Published At,Publisher,Page Count,Description,Categories,Format,Subtitle,Series,Volume,Editors,Translators,Illustrators
b1,9780000000101,First Book,Fiction,2024-01-15,0,1,120,2,0,Author One,en,1999-06-01,Pub One,320,Desc one,Cat A,Paperback,,,,,,
,9780000000102,Second Book,History,,yes,no,0,,1,Author Two,,,Pub Two,0,,,Hardcover,,,,,,
b3,,No ISBN Book,,,,,,,,,,,,,,,,,,,,,
b4,9780000000101,Duplicate Book,,,,,,,,,,,,,,,,,,,,,
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookshelf.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestImportCSV(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	var progress []bool
	result, err := importer.ImportCSV(ctx, store, writeCSV(t, sampleCSV), func(book *catalog.Book, added bool) {
		progress = append(progress, added)
	})
	if err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}
	if result.Added != 2 || result.Skipped != 2 {
		t.Fatalf("expected 2 added / 2 skipped, got %+v", result)
	}
	if len(progress) != 4 {
		t.Fatalf("expected 4 progress calls, got %d", len(progress))
	}

	first, err := store.GetByISBN(ctx, "9780000000101")
	if err != nil {
		t.Fatalf("GetByISBN failed: %v", err)
	}
	if first.Title != "First Book" {
		t.Fatalf("duplicate row must not replace the first import, got %q", first.Title)
	}
	if first.BookID != "b1" || !first.Read || first.PagesRead != 120 || first.NumberOfCopies != 2 {
		t.Fatalf("unexpected first row mapping: %+v", first)
	}
	if first.DateAdded == nil || first.DateAdded.Format("2006-01-02") != "2024-01-15" {
		t.Fatalf("unexpected date added: %v", first.DateAdded)
	}
	if first.PublishedAt == nil || first.PublishedAt.Format("2006-01-02") != "1999-06-01" {
		t.Fatalf("unexpected published date: %v", first.PublishedAt)
	}

	second, err := store.GetByISBN(ctx, "9780000000102")
	if err != nil {
		t.Fatalf("GetByISBN failed: %v", err)
	}
	if second.BookID == "" {
		t.Fatal("expected generated book id for row without one")
	}
	if !second.Wishlist || second.Read {
		t.Fatalf("unexpected flag parsing: %+v", second)
	}
	if second.NumberOfCopies != 1 {
		t.Fatalf("expected copies floor of 1, got %d", second.NumberOfCopies)
	}
	if second.DateAdded != nil || second.PublishedAt != nil {
		t.Fatalf("expected unparseable dates to stay nil: %+v", second)
	}
}

func TestImportCSVMissingFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := importer.ImportCSV(context.Background(), store, filepath.Join(t.TempDir(), "nope.csv"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportCSVEmptyFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := importer.ImportCSV(context.Background(), store, writeCSV(t, ""), nil); err == nil {
		t.Fatal("expected error for file without header")
	}
}
