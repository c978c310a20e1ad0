package openlibrary_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"oakwood/internal/services"
	"oakwood/internal/services/openlibrary"
)

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := openlibrary.New("  "); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestFetchBookSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/books" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("bibkeys") != "ISBN:9780060125639" || q.Get("jscmd") != "data" || q.Get("format") != "json" {
			t.Fatalf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ISBN:9780060125639":{
			"title":"The Dispossessed",
			"number_of_pages":341,
			"publish_date":"May 1974",
			"authors":[{"name":"Ursula K. Le Guin"}],
			"publishers":[{"name":"Harper & Row"},{"name":"Reissue House"}],
			"subjects":[{"name":"Science Fiction"},{"name":"Utopias"}],
			"excerpts":[{"text":"There was a wall."}]
		}}`))
	}))
	t.Cleanup(server.Close)

	client, err := openlibrary.New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	book, err := client.FetchBook(context.Background(), "9780060125639")
	if err != nil {
		t.Fatalf("FetchBook returned error: %v", err)
	}
	if book.Title == nil || *book.Title != "The Dispossessed" {
		t.Fatalf("unexpected title: %v", book.Title)
	}
	if book.Authors == nil || *book.Authors != "Ursula K. Le Guin" {
		t.Fatalf("unexpected authors: %v", book.Authors)
	}
	if book.PageCount == nil || *book.PageCount != 341 {
		t.Fatalf("unexpected page count: %v", book.PageCount)
	}
	if book.Publisher == nil || *book.Publisher != "Harper & Row" {
		t.Fatalf("expected first publisher only, got %v", book.Publisher)
	}
	if book.Categories == nil || *book.Categories != "Science Fiction, Utopias" {
		t.Fatalf("unexpected categories: %v", book.Categories)
	}
	if book.Description == nil || *book.Description != "There was a wall." {
		t.Fatalf("unexpected description: %v", book.Description)
	}
	want := time.Date(1974, time.May, 1, 0, 0, 0, 0, time.UTC)
	if book.PublishedAt == nil || !book.PublishedAt.Equal(want) {
		t.Fatalf("unexpected publish date: %v", book.PublishedAt)
	}
}

func TestFetchBookSparseRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ISBN:123":{"title":"Bare Record"}}`))
	}))
	t.Cleanup(server.Close)

	client, err := openlibrary.New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	book, err := client.FetchBook(context.Background(), "123")
	if err != nil {
		t.Fatalf("FetchBook returned error: %v", err)
	}
	if book.Title == nil || *book.Title != "Bare Record" {
		t.Fatalf("unexpected title: %v", book.Title)
	}
	if book.Authors != nil || book.PageCount != nil || book.Publisher != nil ||
		book.PublishedAt != nil || book.Categories != nil || book.Description != nil {
		t.Fatalf("expected absent fields to stay nil: %#v", book)
	}
}

func TestFetchBookZeroPageCountIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ISBN:123":{"title":"Zero Pages","number_of_pages":0}}`))
	}))
	t.Cleanup(server.Close)

	client, err := openlibrary.New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	book, err := client.FetchBook(context.Background(), "123")
	if err != nil {
		t.Fatalf("FetchBook returned error: %v", err)
	}
	// A reported zero is still a reported value, distinct from an
	// absent number_of_pages field.
	if book.PageCount == nil || *book.PageCount != 0 {
		t.Fatalf("expected reported zero page count, got %v", book.PageCount)
	}
}

func TestFetchBookNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client, err := openlibrary.New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := client.FetchBook(context.Background(), "000"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found marker, got %v", err)
	}
}

func TestFetchBookServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := openlibrary.New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	_, err = client.FetchBook(context.Background(), "123")
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport marker, got %v", err)
	}
	if !services.Retryable(err) {
		t.Fatal("expected transport failure to be retryable")
	}
}

func TestFetchBookMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ISBN:123": not json`))
	}))
	t.Cleanup(server.Close)

	client, err := openlibrary.New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := client.FetchBook(context.Background(), "123"); !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport marker, got %v", err)
	}
}

func TestFetchBookEmptyISBN(t *testing.T) {
	client, err := openlibrary.New("https://example.com")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.FetchBook(context.Background(), " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}
