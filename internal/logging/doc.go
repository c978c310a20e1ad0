// Package logging builds the application's slog loggers.
//
// Two output formats are supported: a human-oriented console format that
// lifts the "component" attribute into the message prefix, and standard
// JSON. Output fans out to stderr plus a log file under the configured log
// directory.
package logging
