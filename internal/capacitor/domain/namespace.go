package domain

import "strings"

// AllowlistNamespace is the namespace holding the durable allowlist.
const AllowlistNamespace = "capacitor"

// AllowlistCollection is the collection holding one record per monitored account.
const AllowlistCollection = "allowed_account_ids"

// Namespace derives the document-store namespace for an account. Document stores
// reject dots in database names, so every "." becomes "_".
func Namespace(accountID string) string {
	return strings.ReplaceAll(accountID, ".", "_")
}
