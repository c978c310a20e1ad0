package verify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"oakwood/internal/catalog"
	"oakwood/internal/services/openlibrary"
)

// FieldID names one of the verifiable catalogue attributes. Values match
// the storage column names so a patch can be handed to the store directly.
type FieldID string

const (
	FieldTitle       FieldID = "title"
	FieldAuthors     FieldID = "authors"
	FieldPageCount   FieldID = "page_count"
	FieldPublisher   FieldID = "publisher"
	FieldPublishedAt FieldID = "published_at"
	FieldCategories  FieldID = "categories"
	FieldDescription FieldID = "description"
)

const dateLayout = "2006-01-02"

// fieldSpec binds a field identifier to its accessors on both record
// shapes. The remote accessor reports presence separately so an omitted
// field is never confused with an empty one.
type fieldSpec struct {
	ID      FieldID
	Display string
	local   func(*catalog.Book) string
	remote  func(*openlibrary.Book) (any, bool)
}

// verifiableFields is the closed, ordered attribute set eligible for
// reconciliation. The order here is the order discrepancies are presented
// in; it never depends on the input records.
var verifiableFields = []fieldSpec{
	{
		ID:      FieldTitle,
		Display: displayName(FieldTitle),
		local:   func(b *catalog.Book) string { return b.Title },
		remote:  func(b *openlibrary.Book) (any, bool) { return stringField(b.Title) },
	},
	{
		ID:      FieldAuthors,
		Display: displayName(FieldAuthors),
		local:   func(b *catalog.Book) string { return b.Authors },
		remote:  func(b *openlibrary.Book) (any, bool) { return stringField(b.Authors) },
	},
	{
		ID:      FieldPageCount,
		Display: displayName(FieldPageCount),
		local: func(b *catalog.Book) string {
			if b.PageCount <= 0 {
				return ""
			}
			return strconv.Itoa(b.PageCount)
		},
		remote: func(b *openlibrary.Book) (any, bool) {
			if b.PageCount == nil {
				return nil, false
			}
			return *b.PageCount, true
		},
	},
	{
		ID:      FieldPublisher,
		Display: displayName(FieldPublisher),
		local:   func(b *catalog.Book) string { return b.Publisher },
		remote:  func(b *openlibrary.Book) (any, bool) { return stringField(b.Publisher) },
	},
	{
		ID:      FieldPublishedAt,
		Display: displayName(FieldPublishedAt),
		local: func(b *catalog.Book) string {
			if b.PublishedAt == nil {
				return ""
			}
			return b.PublishedAt.Format(dateLayout)
		},
		remote: func(b *openlibrary.Book) (any, bool) {
			if b.PublishedAt == nil {
				return nil, false
			}
			return *b.PublishedAt, true
		},
	},
	{
		ID:      FieldCategories,
		Display: displayName(FieldCategories),
		local:   func(b *catalog.Book) string { return b.Categories },
		remote:  func(b *openlibrary.Book) (any, bool) { return stringField(b.Categories) },
	},
	{
		ID:      FieldDescription,
		Display: displayName(FieldDescription),
		local:   func(b *catalog.Book) string { return b.Description },
		remote:  func(b *openlibrary.Book) (any, bool) { return stringField(b.Description) },
	},
}

// VerifiableFields returns the field identifiers in presentation order.
func VerifiableFields() []FieldID {
	ids := make([]FieldID, len(verifiableFields))
	for i, spec := range verifiableFields {
		ids[i] = spec.ID
	}
	return ids
}

var titleCaser = cases.Title(language.English)

func displayName(id FieldID) string {
	return titleCaser.String(strings.ReplaceAll(string(id), "_", " "))
}

func stringField(value *string) (any, bool) {
	if value == nil {
		return nil, false
	}
	return *value, true
}

// formatValue renders a patch value the way it is shown to the user and
// compared against the local record.
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		if v == 0 {
			return ""
		}
		return strconv.Itoa(v)
	case time.Time:
		return v.Format(dateLayout)
	default:
		return fmt.Sprint(v)
	}
}
