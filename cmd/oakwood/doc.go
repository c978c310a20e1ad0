// Package main hosts the Oakwood CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces catalogue browsing, Open Library
// verification, CSV import, backup management, and the activity log. It
// centralizes configuration resolution and store lifecycle so subcommands
// can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
