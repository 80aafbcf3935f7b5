package marketplace

import (
	"encoding/json"
	"net/http"

	"github.com/AdX213/erli-sync/internal/domain/sync"
)

// Result is a marketplace response: the HTTP status plus the raw body.
// Decoding is deferred to the caller because several flows branch on the
// status before (or instead of) looking at the body.
type Result struct {
	// Status is the HTTP status code
	Status int
	// Raw is the unparsed response body
	Raw []byte
}

// IsSuccess reports a 2xx status
func (r *Result) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

// IsNotFound reports a 404 status
func (r *Result) IsNotFound() bool {
	return r.Status == http.StatusNotFound
}

// IsRateLimited reports a 429 status
func (r *Result) IsRateLimited() bool {
	return r.Status == http.StatusTooManyRequests
}

// Decode parses the body into v. A body that is not valid JSON yields a
// MalformedBodyError carrying the raw text, so callers can log what the
// marketplace actually sent.
func (r *Result) Decode(v any) error {
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return &MalformedBodyError{Raw: string(r.Raw), cause: err}
	}
	return nil
}

// Err converts a non-success result into a sync.StatusError; success yields
// nil. The body is truncated so log lines stay readable.
func (r *Result) Err() error {
	if r.IsSuccess() {
		return nil
	}
	raw := string(r.Raw)
	if len(raw) > 512 {
		raw = raw[:512]
	}
	return sync.NewStatusError(r.Status, raw)
}

// MalformedBodyError indicates a response body that could not be parsed as
// JSON
type MalformedBodyError struct {
	// Raw is the unparsed body text
	Raw   string
	cause error
}

// Error implements the error interface
func (e *MalformedBodyError) Error() string {
	return "marketplace: malformed response body: " + e.cause.Error()
}

// Unwrap exposes the underlying JSON error
func (e *MalformedBodyError) Unwrap() error {
	return e.cause
}
