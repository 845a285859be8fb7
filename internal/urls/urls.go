// Package urls normalizes and validates user-submitted page addresses.
package urls

import (
	"errors"
	"net/url"
	"strings"
)

// MaxLength is the longest normalized URL the store accepts.
const MaxLength = 255

// Validation errors returned by Validate.
var (
	ErrInvalidURL = errors.New("invalid url")
	ErrURLTooLong = errors.New("url exceeds 255 characters")
)

// Normalize reduces a URL to scheme plus host so that equivalent submissions
// collide on the store's unique name. The scheme and host are lowercased and
// an explicit port is kept; path, query, fragment and credentials are dropped.
// Normalize is idempotent and never fails: unparseable input comes back
// unchanged and is left for Validate to reject.
func Normalize(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

// Validate checks that raw is a well-formed absolute http(s) URL whose
// normalized form fits the store. It short-circuits on the first failing
// rule, so the result carries at most one error.
func Validate(raw string) []error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" || !recognizedScheme(u.Scheme) {
		return []error{ErrInvalidURL}
	}
	if len(Normalize(raw)) > MaxLength {
		return []error{ErrURLTooLong}
	}
	return nil
}

func recognizedScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}
