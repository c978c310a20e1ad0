// Package services defines shared error classification for the external
// integrations and the verification session.
//
// Failures are tagged with sentinel markers (transport, not found,
// validation, timeout) via Wrap so callers can branch on errors.Is without
// parsing messages. Transport and timeout failures are retryable at the
// caller's discretion; everything else needs different input.
package services
