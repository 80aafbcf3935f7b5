package sync

import (
	"errors"
	"fmt"
	"net/http"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	// ErrTransport indicates the marketplace could not be reached at all
	ErrTransport = errors.New("sync: marketplace transport failure")
	// ErrRateLimited indicates the marketplace answered 429
	ErrRateLimited = errors.New("sync: rate limited by marketplace")
	// ErrRemoteNotFound indicates the remote resource does not exist (404)
	ErrRemoteNotFound = errors.New("sync: remote resource not found")
	// ErrLinkNotFound indicates no link row exists for the given key
	ErrLinkNotFound = errors.New("sync: link not found")
	// ErrLinkExists indicates a link row already exists for the given key
	ErrLinkExists = errors.New("sync: link already exists")
	// ErrInvalidExternalID indicates an external id that cannot be parsed
	ErrInvalidExternalID = errors.New("sync: invalid external id")
	// ErrCursorNotFound indicates no cursor value has been stored yet
	ErrCursorNotFound = errors.New("sync: cursor not found")
)

// ---------------------------------------------------------------------------
// StatusError
// ---------------------------------------------------------------------------

// StatusError carries a non-success marketplace HTTP status together with the
// raw response body, so callers can branch on the status and operators can see
// what the marketplace actually said.
type StatusError struct {
	// Status is the HTTP status code returned by the marketplace
	Status int
	// Raw is the unparsed response body (possibly truncated)
	Raw string
}

// Error implements the error interface
func (e *StatusError) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf("sync: marketplace returned HTTP %d", e.Status)
	}
	return fmt.Sprintf("sync: marketplace returned HTTP %d: %s", e.Status, e.Raw)
}

// Is maps well-known statuses onto the package sentinels so callers can use
// errors.Is without inspecting the code themselves.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrRemoteNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// NewStatusError creates a StatusError for a non-success marketplace response
func NewStatusError(status int, raw string) *StatusError {
	return &StatusError{Status: status, Raw: raw}
}

// ---------------------------------------------------------------------------
// MappingError
// ---------------------------------------------------------------------------

// MappingError indicates a marketplace document could not be translated into
// local commerce data. It names the offending reference so single bad rows
// can be skipped without aborting a whole run.
type MappingError struct {
	// Reference identifies the document or item that failed to map
	Reference string
	// Reason describes what was wrong with it
	Reason string
}

// Error implements the error interface
func (e *MappingError) Error() string {
	return fmt.Sprintf("sync: cannot map %q: %s", e.Reference, e.Reason)
}

// NewMappingError creates a MappingError
func NewMappingError(reference, reason string) *MappingError {
	return &MappingError{Reference: reference, Reason: reason}
}
