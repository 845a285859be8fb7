// Package store declares the persistence contract for URLs and their checks.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateURL signals that a URL with the same name is already registered.
// The store-level unique constraint is the authoritative guard against races,
// even when callers deduplicate via FindByName first.
var ErrDuplicateURL = errors.New("url already exists")

// URL is a registered page address. Rows are append-only: a URL is never
// updated or deleted once inserted.
type URL struct {
	// ID is the store-generated primary key.
	ID int64
	// Name is the normalized URL (scheme + host), unique across the store.
	Name string
	// CreatedAt is set by the store at insert time.
	CreatedAt time.Time
}

// URLCheck is one recorded fetch-and-extract attempt against a URL.
// Checks form an insert-only audit history ordered newest first.
type URLCheck struct {
	ID        int64
	URLID     int64
	CreatedAt time.Time
	// StatusCode is nil when no HTTP response was ever received.
	StatusCode *int
	// H1, Title and Description are nil when the corresponding tag
	// was absent from the fetched page.
	H1          *string
	Title       *string
	Description *string
}

// CheckResult carries the outcome of a page check before it is persisted.
type CheckResult struct {
	StatusCode  *int
	H1          *string
	Title       *string
	Description *string
}

// URLSummary pairs a URL with its most recent check, if any.
type URLSummary struct {
	URL URL
	// LastCheckedAt is nil when the URL has never been checked.
	LastCheckedAt *time.Time
	// LastStatusCode is the status of the most recent check, nil if none.
	LastStatusCode *int
}

// URLRepository persists URLs and their check history. Every call is an
// independent unit of work against the store; implementations must roll back
// and surface the error on any store failure rather than swallowing it.
type URLRepository interface {
	// FindByName looks up a URL by its exact normalized name, or ErrNotFound.
	FindByName(ctx context.Context, name string) (URL, error)
	// FindByID loads a single URL or returns ErrNotFound.
	FindByID(ctx context.Context, id int64) (URL, error)
	// SaveURL inserts a new URL and returns its generated id.
	// A unique-constraint violation surfaces as ErrDuplicateURL.
	SaveURL(ctx context.Context, name string) (int64, error)
	// ListURLs returns every URL with its latest check summary, newest URL first.
	ListURLs(ctx context.Context) ([]URLSummary, error)
	// ListChecks returns the checks recorded for a URL that carry a status
	// code, newest first.
	ListChecks(ctx context.Context, urlID int64) ([]URLCheck, error)
	// SaveCheck appends one check row to a URL's history.
	SaveCheck(ctx context.Context, urlID int64, result CheckResult) error
}
