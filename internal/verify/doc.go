// Package verify reconciles catalogue records against Open Library
// metadata.
//
// A Verifier starts one Session per identifier. The session fetches the
// external record in the background, diffs it against the stored one under
// a fixed attribute order, and walks the caller through one decision per
// discrepancy. The final decision commits the accepted values together
// with the verification stamp as a single atomic update and appends an
// audit entry; a clean diff auto-verifies without any decisions.
// Cancelling before the commit discards everything.
package verify
