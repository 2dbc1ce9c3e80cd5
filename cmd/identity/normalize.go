package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
// Emails are stored and looked up in this form only.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeUsername trims surrounding whitespace. Display case is preserved.
func NormalizeUsername(s string) string {
	return strings.TrimSpace(s)
}
