package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"oakwood/internal/config"
)

// Store manages catalogue persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalogue database and verifies the
// schema version.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the catalogue database at an explicit path. Used by Open
// and by the backup restore flow, which operates on extracted files.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a book with the given ISBN is in the catalogue.
func (s *Store) Exists(ctx context.Context, isbn string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM books WHERE isbn = ?`, isbn).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check book exists: %w", err)
	}
	return true, nil
}

// Insert adds a book row to the catalogue.
func (s *Store) Insert(ctx context.Context, book *Book) error {
	if book == nil {
		return errors.New("book is nil")
	}
	if strings.TrimSpace(book.ISBN) == "" {
		return errors.New("book isbn is required")
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO books (
            book_id, isbn, title, bookshelf, date_added,
            wishlist, read, pages_read, number_of_copies, signed,
            authors, language, published_at, publisher, page_count,
            description, categories, format,
            subtitle, series, volume,
            editors, translators, illustrators,
            verified, last_verified
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.BookID,
		book.ISBN,
		book.Title,
		book.Bookshelf,
		nullableDate(book.DateAdded),
		boolToInt(book.Wishlist),
		boolToInt(book.Read),
		book.PagesRead,
		book.NumberOfCopies,
		boolToInt(book.Signed),
		book.Authors,
		book.Language,
		nullableDate(book.PublishedAt),
		book.Publisher,
		book.PageCount,
		book.Description,
		book.Categories,
		book.Format,
		book.Subtitle,
		book.Series,
		book.Volume,
		book.Editors,
		book.Translators,
		book.Illustrators,
		boolToInt(book.Verified),
		nullableDate(book.LastVerified),
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// GetByISBN looks up a single book. Returns nil when no row matches.
func (s *Store) GetByISBN(ctx context.Context, isbn string) (*Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE isbn = ?`, isbn)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// updatableFields is the closed set of columns UpdateFields accepts.
var updatableFields = map[string]struct{}{
	"book_id": {}, "isbn": {}, "title": {}, "subtitle": {}, "bookshelf": {},
	"date_added": {}, "wishlist": {}, "read": {}, "pages_read": {},
	"number_of_copies": {}, "signed": {}, "authors": {}, "language": {},
	"published_at": {}, "publisher": {}, "page_count": {}, "description": {},
	"categories": {}, "format": {}, "series": {}, "volume": {},
	"editors": {}, "translators": {}, "illustrators": {},
	"verified": {}, "last_verified": {},
}

// UpdateFields updates specific columns for the book identified by ISBN as
// a single statement, so concurrent readers never observe a partial patch.
// Returns false when no row matched or updates was empty. Unknown column
// names fail with ErrInvalidField before any mutation.
func (s *Store) UpdateFields(ctx context.Context, isbn string, updates map[string]any) (bool, error) {
	for name := range updates {
		if _, ok := updatableFields[name]; !ok {
			return false, fmt.Errorf("%w: %s", ErrInvalidField, name)
		}
	}
	if len(updates) == 0 {
		return false, nil
	}

	// Deterministic column order keeps statements stable for logging and tests.
	names := make([]string, 0, len(updates))
	for name := range updates {
		names = append(names, name)
	}
	sort.Strings(names)

	setParts := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		setParts = append(setParts, name+" = ?")
		args = append(args, bindValue(updates[name]))
	}
	args = append(args, isbn)

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE books SET `+strings.Join(setParts, ", ")+` WHERE isbn = ?`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("update book fields: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// List returns books ordered by title, optionally filtered by shelf.
func (s *Store) List(ctx context.Context, shelf string) ([]*Book, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if shelf != "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books WHERE bookshelf = ? ORDER BY title`, shelf)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY title`)
	}
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()
	return collectBooks(rows)
}

// ListByDateAdded returns all books newest-first; rows without a date sort
// last, then alphabetically.
func (s *Store) ListByDateAdded(ctx context.Context) ([]*Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY date_added IS NULL, date_added DESC, title`)
	if err != nil {
		return nil, fmt.Errorf("list books by date: %w", err)
	}
	defer rows.Close()
	return collectBooks(rows)
}

// Search matches title, authors, or ISBN as a substring, ordered by title.
func (s *Store) Search(ctx context.Context, query string) ([]*Book, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+bookColumns+` FROM books
         WHERE title LIKE ? OR authors LIKE ? OR isbn LIKE ?
         ORDER BY title`,
		pattern, pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer rows.Close()
	return collectBooks(rows)
}

// Count returns the total number of books.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return count, nil
}

// ShelfCounts returns book counts grouped by shelf, largest first.
func (s *Store) ShelfCounts(ctx context.Context) (map[string]int, error) {
	return s.groupCounts(ctx, `SELECT bookshelf, COUNT(*) FROM books GROUP BY bookshelf ORDER BY COUNT(*) DESC`)
}

// FormatCounts returns book counts grouped by format, largest first.
// Books with an empty format are excluded.
func (s *Store) FormatCounts(ctx context.Context) (map[string]int, error) {
	return s.groupCounts(ctx, `SELECT format, COUNT(*) FROM books WHERE format != '' GROUP BY format ORDER BY COUNT(*) DESC`)
}

func (s *Store) groupCounts(ctx context.Context, query string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("group counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

// Shelves returns all unique shelf names, sorted alphabetically.
func (s *Store) Shelves(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT bookshelf FROM books ORDER BY bookshelf`)
	if err != nil {
		return nil, fmt.Errorf("list shelves: %w", err)
	}
	defer rows.Close()

	var shelves []string
	for rows.Next() {
		var shelf string
		if err := rows.Scan(&shelf); err != nil {
			return nil, err
		}
		shelves = append(shelves, shelf)
	}
	return shelves, rows.Err()
}

// LastAdded returns the most recent date_added value, or nil when the
// catalogue is empty or undated.
func (s *Store) LastAdded(ctx context.Context) (*time.Time, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(
		ctx,
		`SELECT date_added FROM books WHERE date_added IS NOT NULL ORDER BY date_added DESC LIMIT 1`,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last added date: %w", err)
	}
	return parseDate(raw.String), nil
}

// CheckHealth returns diagnostic information about the catalogue database.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	health := Health{DBPath: s.path}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat catalogue database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("catalogue database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'books'")
	if err := row.Scan(&tableName); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM books").Scan(&health.TotalBooks); err != nil {
			return health, fmt.Errorf("count books: %w", err)
		}
	}

	var integrity string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityOK = strings.EqualFold(integrity, "ok")

	return health, nil
}

const bookColumns = "book_id, isbn, title, bookshelf, date_added, wishlist, read, pages_read, number_of_copies, signed, authors, language, published_at, publisher, page_count, description, categories, format, subtitle, series, volume, editors, translators, illustrators, verified, last_verified"

func collectBooks(rows *sql.Rows) ([]*Book, error) {
	var books []*Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

func scanBook(scanner interface{ Scan(dest ...any) error }) (*Book, error) {
	var (
		bookID         string
		isbn           string
		title          string
		bookshelf      string
		dateAdded      sql.NullString
		wishlist       sql.NullInt64
		read           sql.NullInt64
		pagesRead      sql.NullInt64
		numberOfCopies sql.NullInt64
		signed         sql.NullInt64
		authors        sql.NullString
		language       sql.NullString
		publishedAt    sql.NullString
		publisher      sql.NullString
		pageCount      sql.NullInt64
		description    sql.NullString
		categories     sql.NullString
		format         sql.NullString
		subtitle       sql.NullString
		series         sql.NullString
		volume         sql.NullString
		editors        sql.NullString
		translators    sql.NullString
		illustrators   sql.NullString
		verified       sql.NullInt64
		lastVerified   sql.NullString
	)

	if err := scanner.Scan(
		&bookID, &isbn, &title, &bookshelf, &dateAdded,
		&wishlist, &read, &pagesRead, &numberOfCopies, &signed,
		&authors, &language, &publishedAt, &publisher, &pageCount,
		&description, &categories, &format,
		&subtitle, &series, &volume,
		&editors, &translators, &illustrators,
		&verified, &lastVerified,
	); err != nil {
		return nil, err
	}

	return &Book{
		BookID:         bookID,
		ISBN:           isbn,
		Title:          title,
		Bookshelf:      bookshelf,
		DateAdded:      parseDate(dateAdded.String),
		Wishlist:       wishlist.Int64 != 0,
		Read:           read.Int64 != 0,
		PagesRead:      int(pagesRead.Int64),
		NumberOfCopies: int(numberOfCopies.Int64),
		Signed:         signed.Int64 != 0,
		Authors:        authors.String,
		Language:       language.String,
		PublishedAt:    parseDate(publishedAt.String),
		Publisher:      publisher.String,
		PageCount:      int(pageCount.Int64),
		Description:    description.String,
		Categories:     categories.String,
		Format:         format.String,
		Subtitle:       subtitle.String,
		Series:         series.String,
		Volume:         volume.String,
		Editors:        editors.String,
		Translators:    translators.String,
		Illustrators:   illustrators.String,
		Verified:       verified.Int64 != 0,
		LastVerified:   parseDate(lastVerified.String),
	}, nil
}

// bindValue converts Go values into their stored representation: dates as
// ISO strings, booleans as integers, nil pointers as NULL.
func bindValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.Format(dateLayout)
	case *time.Time:
		return nullableDate(v)
	case bool:
		return boolToInt(v)
	default:
		return value
	}
}

const dateLayout = "2006-01-02"

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return nil
	}
	return &parsed
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.Format(dateLayout)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
