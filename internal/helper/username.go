package helper

import "strings"

// NormalizeUsername lowercases, trims, and strips a single leading "@"
// so that "@Alice " and "alice" resolve to the same account.
func NormalizeUsername(username string) string {
	username = strings.ToLower(strings.TrimSpace(username))
	return strings.TrimPrefix(username, "@")
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
