package verify

import (
	"oakwood/internal/catalog"
	"oakwood/internal/services/openlibrary"
)

// Discrepancy is one detected mismatch between the stored record and the
// fetched one, carrying display strings for both sides.
type Discrepancy struct {
	Field   FieldID
	Display string
	Local   string
	Remote  string

	// value is the typed external value applied if the user accepts it.
	value any
}

// Diff compares the local record against the fetched one field by field,
// in the fixed presentation order. Fields the external source did not
// report are skipped outright; a discrepancy is emitted only when both
// sides render to different strings, with an unset local value treated as
// the empty string.
func Diff(local *catalog.Book, remote *openlibrary.Book) []Discrepancy {
	var discrepancies []Discrepancy
	for _, spec := range verifiableFields {
		value, present := spec.remote(remote)
		if !present {
			continue
		}
		localStr := spec.local(local)
		remoteStr := formatValue(value)
		if localStr == remoteStr {
			continue
		}
		discrepancies = append(discrepancies, Discrepancy{
			Field:   spec.ID,
			Display: spec.Display,
			Local:   localStr,
			Remote:  remoteStr,
			value:   value,
		})
	}
	return discrepancies
}
