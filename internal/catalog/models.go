package catalog

import "time"

// Book is a single catalogue entry. ISBN is the unique key used for
// deduplication and all lookups; BookID carries the identifier assigned by
// the source system the row was imported from.
type Book struct {
	BookID    string
	ISBN      string
	Title     string
	Bookshelf string
	DateAdded *time.Time

	Wishlist       bool
	Read           bool
	PagesRead      int
	NumberOfCopies int
	Signed         bool

	Authors     string
	Language    string
	PublishedAt *time.Time
	Publisher   string
	PageCount   int
	Description string
	Categories  string
	Format      string

	Subtitle string
	Series   string
	Volume   string

	Editors      string
	Translators  string
	Illustrators string

	Verified     bool
	LastVerified *time.Time
}

// DisplayTitle returns the title truncated with an ellipsis if needed.
func (b *Book) DisplayTitle(maxLength int) string {
	return truncate(b.Title, maxLength)
}

// DisplayAuthors returns the authors string truncated with an ellipsis if needed.
func (b *Book) DisplayAuthors(maxLength int) string {
	return truncate(b.Authors, maxLength)
}

// FullTitle returns "Title: Subtitle" when a subtitle exists.
func (b *Book) FullTitle() string {
	if b.Subtitle != "" {
		return b.Title + ": " + b.Subtitle
	}
	return b.Title
}

func truncate(value string, maxLength int) string {
	if maxLength <= 3 || len(value) <= maxLength {
		return value
	}
	return value[:maxLength-3] + "..."
}

// Health aggregates database diagnostics for status output.
type Health struct {
	DBPath         string
	DatabaseExists bool
	TableExists    bool
	IntegrityOK    bool
	TotalBooks     int
}
