// Package openlibrary provides the minimal Open Library books API client
// used during catalogue verification.
//
// FetchBook resolves an ISBN through the bibkeys data endpoint and flattens
// the response into pointer-typed fields so callers can distinguish a field
// the service omitted from one it reported as empty. ParsePublishDate
// normalizes the API's heterogeneous publish_date strings into concrete
// dates. Options allow tests to supply custom HTTP clients without
// modifying production code.
package openlibrary
