package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, feeds and infrastructure layers
// return these (optionally wrapped) so callers can classify failures with errors.Is.
//
// These represent factual states, not business rules:
// - ErrInvalidInput: payload could not be decoded or failed validation
// - ErrRejected: store refused the write; retrying will not help
// - ErrUnavailable: service or resource temporarily unavailable
// - ErrEndOfFeed: a finite event feed has been drained
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrRejected     = errors.New("rejected")
	ErrUnavailable  = errors.New("unavailable")
	ErrEndOfFeed    = errors.New("end of feed")
)
