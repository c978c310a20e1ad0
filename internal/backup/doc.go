// Package backup archives the catalogue database and covers directory
// into timestamped tar.gz files and restores them with a pre-restore
// safety copy.
package backup
