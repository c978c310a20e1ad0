package verify_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"oakwood/internal/activity"
	"oakwood/internal/catalog"
	"oakwood/internal/services"
	"oakwood/internal/testsupport"
	"oakwood/internal/verify"
)

func TestCommitRejectsUnsupportedField(t *testing.T) {
	fx := newFixture(t, &stubFetcher{})
	testsupport.SeedBook(t, fx.store, "9780060125639")
	ctx := context.Background()

	patch := map[string]any{
		"title":  "Changed",
		"rating": 5,
	}
	_, err := fx.verifier.Commit(ctx, "9780060125639", patch, nil, nil)
	if !errors.Is(err, catalog.ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}

	book, err := fx.store.GetByISBN(ctx, "9780060125639")
	if err != nil {
		t.Fatalf("GetByISBN failed: %v", err)
	}
	if book.Title != "The Dispossessed" {
		t.Fatalf("rejected patch must not mutate the record, got %q", book.Title)
	}
}

func TestCommitUnknownISBN(t *testing.T) {
	fx := newFixture(t, &stubFetcher{})

	_, err := fx.verifier.Commit(context.Background(), "missing", map[string]any{"title": "X"}, nil, nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found marker, got %v", err)
	}
}

func TestCommitReportsAuditFailureSeparately(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedBook(t, store, "9780060125639")
	ctx := context.Background()

	// Point the audit log under a regular file so the append cannot
	// create its directory.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	audit := activity.New(filepath.Join(blocker, "activity.log"))
	verifier := verify.NewVerifier(store, &stubFetcher{}, audit, nil)

	outcome, err := verifier.Commit(ctx, "9780060125639",
		map[string]any{"publisher": "HarperCollins"}, []verify.FieldID{verify.FieldPublisher}, nil)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if outcome.AuditErr == nil {
		t.Fatal("expected audit failure to be surfaced")
	}
	if outcome.Book == nil || outcome.Book.Publisher != "HarperCollins" {
		t.Fatalf("expected data update despite audit failure, got %+v", outcome.Book)
	}
}

func TestCommitWritesAuditFieldSets(t *testing.T) {
	fx := newFixture(t, &stubFetcher{})
	testsupport.SeedBook(t, fx.store, "9780060125639")
	ctx := context.Background()

	patch := map[string]any{"title": "Changed"}
	updated := []verify.FieldID{verify.FieldTitle}
	skipped := []verify.FieldID{verify.FieldPublisher, verify.FieldPageCount}
	if _, err := fx.verifier.Commit(ctx, "9780060125639", patch, updated, skipped); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	entries, err := fx.audit.ReadRecent(0)
	if err != nil {
		t.Fatalf("ReadRecent failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Action != activity.ActionVerify || entry.ISBN != "9780060125639" {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
	updatedNames, ok := entry.Details["fields_updated"].([]any)
	if !ok || len(updatedNames) != 1 || updatedNames[0] != "Title" {
		t.Fatalf("unexpected updated set in audit entry: %v", entry.Details)
	}
	skippedNames, ok := entry.Details["fields_skipped"].([]any)
	if !ok || len(skippedNames) != 2 {
		t.Fatalf("unexpected skipped set in audit entry: %v", entry.Details)
	}
	// Audit readers see display names, not column ids.
	if skippedNames[0] != "Publisher" || skippedNames[1] != "Page Count" {
		t.Fatalf("expected display names in audit entry, got %v", skippedNames)
	}
}
