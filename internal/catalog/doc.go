// Package catalog persists the book catalogue in SQLite and is the single
// source of truth for book row semantics.
//
// The Store manages database connections, schema initialization, lookups,
// search, aggregate counts, and the whitelisted field-update path used by
// verification commits. Dates are stored as ISO strings and booleans as
// integers; UpdateFields performs its patch as one statement so readers
// never observe a partially applied update. Schema changes bump the
// version in schema.go.
package catalog
