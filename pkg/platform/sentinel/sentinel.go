package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: write lost against a concurrent writer
// - ErrAlreadyUsed: resource (project id, instance key) already consumed
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrBusy: per-instance guard held by an in-flight call (reentrancy)
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrBusy         = errors.New("busy")
	ErrUnavailable  = errors.New("unavailable")
)
