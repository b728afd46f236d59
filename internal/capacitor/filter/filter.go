package filter

import "capacitor/internal/capacitor/domain"

// Membership answers allowlist membership without I/O.
type Membership interface {
	Contains(accountID string) bool
}

// IsEligible reports whether an outcome should be processed: it must have
// succeeded and its executor must be monitored.
func IsEligible(outcome domain.Outcome, members Membership) bool {
	if !outcome.Status.IsSuccess() {
		return false
	}
	return members.Contains(outcome.ExecutorID)
}
