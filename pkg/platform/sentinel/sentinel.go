package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these
// (optionally wrapped) so services and handlers can translate them into
// HTTP responses without string matching.
//
// Per-record data-quality outcomes (unusable identifier, unmatched
// reference, malformed value) are deliberately NOT errors: the loaders
// classify and count them in the run summary instead.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
