// Package activity maintains the append-only audit trail of catalogue
// changes as JSON lines, guarded by a file lock for cross-process safety.
package activity
