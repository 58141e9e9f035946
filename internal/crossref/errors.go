package crossref

import (
	"errors"
	"fmt"
)

// Common errors returned by the Crossref client.
var (
	// ErrNotFound indicates no work is registered for the DOI.
	ErrNotFound = errors.New("not found in Crossref")

	// ErrRateLimited indicates the polite pool rate limit has been exceeded.
	ErrRateLimited = errors.New("Crossref rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with Crossref")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from Crossref")
)

// APIError is a non-success HTTP response from the Crossref REST API.
// Statuses with a sentinel (404, 429) unwrap to it.
type APIError struct {
	StatusCode int
	Message    string
	DOI        string // set for lookups
	Err        error  // ErrNotFound, ErrRateLimited or nil
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("Crossref API error (status %d): %s", e.StatusCode, e.Message)
	if e.DOI != "" {
		msg += " (doi: " + e.DOI + ")"
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Err }

// IsNotFound reports whether err means no work is registered for a DOI.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsRateLimited reports whether err is a 429 from Crossref.
func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }
