package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the upstream index holds no exact match for the identifier.
	ErrNotFound = errors.New("company not found")
	// ErrCacheUnavailable wraps storage failures.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// ValidationError reports a malformed user-supplied value.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// UpstreamError reports a failed exchange with the upstream site.
type UpstreamError struct {
	Kind       FetchKind
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("upstream %s %s: status %d: %v", e.Kind, e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("upstream %s %s: status %d", e.Kind, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("upstream %s %s: %v", e.Kind, e.URL, e.Err)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ExtractionError is produced when a single extraction rule fails.
type ExtractionError struct {
	Rule string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction rule %s: %v", e.Rule, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpstream reports whether err carries an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
