package domain

import "strings"

// Status is the terminal state of a receipt execution.
type Status string

const (
	StatusSuccessValue     Status = "SuccessValue"
	StatusSuccessReceiptID Status = "SuccessReceiptId"
	StatusFailure          Status = "Failure"
	StatusUnknown          Status = "Unknown"
)

// ParseStatus maps a wire status name to a Status. Unrecognised names map to
// StatusUnknown so they can never be mistaken for success.
func ParseStatus(name string) Status {
	switch Status(strings.TrimSpace(name)) {
	case StatusSuccessValue:
		return StatusSuccessValue
	case StatusSuccessReceiptID:
		return StatusSuccessReceiptID
	case StatusFailure:
		return StatusFailure
	default:
		return StatusUnknown
	}
}

// IsSuccess reports whether the outcome completed with a value or a follow-up receipt.
func (s Status) IsSuccess() bool {
	return s == StatusSuccessValue || s == StatusSuccessReceiptID
}

// Outcome is one execution outcome produced by the chain for a receipt.
type Outcome struct {
	ReceiptID  string
	ExecutorID string
	Status     Status
	Logs       []string
}

// Block groups the outcomes delivered together by the feed.
type Block struct {
	Height   uint64
	Hash     string
	Outcomes []Outcome
}
