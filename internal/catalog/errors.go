package catalog

import "errors"

// ErrInvalidField indicates an update referenced a column outside the
// updatable whitelist. This is a caller bug, never user input.
var ErrInvalidField = errors.New("invalid field")
