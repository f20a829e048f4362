package httputil

import (
	"regexp"
	"strings"
)

// Email validation regex - pragmatic shape check, not a full RFC 5322 parser.
// local@domain.tld with at least one dot in the domain.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail checks if a string looks like an email address.
func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

// ValidateTag checks if a question tag is valid.
// Valid tags must:
// - Not be empty after trimming
// - Only contain alphanumeric characters, hyphens, plus signs, and dots
// - Be between 1 and 32 characters
var tagRegex = regexp.MustCompile(`^[a-zA-Z0-9+.][a-zA-Z0-9+._-]{0,31}$`)

func ValidateTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	return tagRegex.MatchString(tag)
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}
