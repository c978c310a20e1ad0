// Package importer loads Bookshelf CSV exports into the catalogue,
// skipping duplicate and ISBN-less rows.
package importer
