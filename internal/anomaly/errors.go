package anomaly

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEvents is returned by Normalize when no record survives date resolution.
	ErrNoEvents = errors.New("no anomalies available")

	// ErrInvalidDate is wrapped by ParseError when the date string is malformed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrUnknownZone is wrapped by ParseError when the timezone is not a known IANA zone.
	ErrUnknownZone = errors.New("unknown timezone")

	// ErrDocumentTooLarge is wrapped by TransportError when a response body
	// exceeds the size limit.
	ErrDocumentTooLarge = errors.New("document too large")
)

// ParseError reports a record whose date and timezone could not be resolved
// to an instant.
type ParseError struct {
	Date     string
	Timezone string
	Err      error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("resolve %q in %q: %v", e.Date, e.Timezone, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError reports a document that is not structurally valid.
type SchemaError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Err != nil {
		return "invalid document: " + e.Reason + ": " + e.Err.Error()
	}
	return "invalid document: " + e.Reason
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// TransportError reports a document that could not be retrieved.
type TransportError struct {
	Source string
	// Status is the HTTP status code, or 0 when no response was received.
	Status int
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("fetch %s: HTTP %d", e.Source, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
	default:
		return fmt.Sprintf("fetch %s failed", e.Source)
	}
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}
