package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about records, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrConflict: a uniqueness constraint (phone, title-under-parent) was hit
// - ErrInvalidState: record in wrong state for the requested operation
// - ErrUnavailable: store temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
