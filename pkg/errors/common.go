package errors

import (
	"errors"
	"fmt"
)

// Kind enumerates the error kinds surfaced by the resolver and table reader.
type Kind string

const (
	KindConnection      Kind = "connection_error"
	KindNotFound        Kind = "not_found"
	KindBufferExceeded  Kind = "buffer_exceeded"
	KindPartialMetadata Kind = "partial_metadata"
	KindCacheIO         Kind = "cache_io_error"
	KindInvalidRequest  Kind = "invalid_request"
)

// Default remedies shown to users when no more specific hint is available.
const (
	RemedyConnection     = "Check that the backend system is reachable and the RFC destination is configured correctly."
	RemedyNotFound       = "Verify the name exists in the backend catalog and is remote-enabled."
	RemedyBufferExceeded = "Table has very wide rows. Try specifying specific narrow fields."
)

// DomainError represents an error belonging to the rfcbridge taxonomy.
type DomainError struct {
	// Error kind
	ErrKind Kind

	// Human-readable error message
	Message string

	// Suggested remedy, shown verbatim to the user
	Remedy string

	// Function or table the error refers to, if any
	Subject string

	// Original error that caused this one, if any
	Cause error
}

// Error returns the error message.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.ErrKind, e.Message)

	if e.Subject != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Subject)
	}

	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}

	return msg
}

// Unwrap returns the cause of this error
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// New creates a new DomainError.
func New(kind Kind, message string) *DomainError {
	return &DomainError{
		ErrKind: kind,
		Message: message,
		Remedy:  defaultRemedy(kind),
	}
}

// Wrap wraps an error with taxonomy context.
func Wrap(kind Kind, message string, err error) *DomainError {
	e := New(kind, message)
	e.Cause = err
	return e
}

// WithRemedy replaces the suggested remedy
func (e *DomainError) WithRemedy(remedy string) *DomainError {
	e.Remedy = remedy
	return e
}

// WithSubject adds the function or table name
func (e *DomainError) WithSubject(subject string) *DomainError {
	e.Subject = subject
	return e
}

// Is checks if an error is a DomainError of the specified kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf returns the kind of the first DomainError in err's chain, or "".
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.ErrKind
	}
	return ""
}

// RemedyOf returns the remedy of the first DomainError in err's chain, or "".
func RemedyOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Remedy
	}
	return ""
}

func defaultRemedy(kind Kind) string {
	switch kind {
	case KindConnection:
		return RemedyConnection
	case KindNotFound:
		return RemedyNotFound
	case KindBufferExceeded:
		return RemedyBufferExceeded
	}
	return ""
}

// NotFound is a shorthand for a NotFound error about subject.
func NotFound(subject, message string) *DomainError {
	return New(KindNotFound, message).WithSubject(subject)
}

// Connection is a shorthand for wrapping a failed backend call.
func Connection(subject string, err error) *DomainError {
	return Wrap(KindConnection, "backend call failed", err).WithSubject(subject)
}

// InvalidRequest is a shorthand for a request validation failure.
func InvalidRequest(message string, err error) *DomainError {
	return Wrap(KindInvalidRequest, message, err)
}
