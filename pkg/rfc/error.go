package rfc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies backend failures the way RFC libraries report them.
type ErrorKind string

const (
	KindCommunication ErrorKind = "communication"
	KindLogon         ErrorKind = "logon"
	KindABAP          ErrorKind = "abap"
	KindRuntime       ErrorKind = "runtime"
)

// Exception keys raised by the catalog and table read functions.
const (
	KeyDataBufferExceeded = "DATA_BUFFER_EXCEEDED"
	KeyTableNotAvailable  = "TABLE_NOT_AVAILABLE"
	KeyNotFound           = "NOT_FOUND"
	KeyFuNotFound         = "FU_NOT_FOUND"
)

// Error is the typed failure returned by a Caller.
type Error struct {
	Kind    ErrorKind
	Key     string
	Message string
	cause   error
}

// NewError creates a backend error.
func NewError(kind ErrorKind, key, message string) *Error {
	return &Error{Kind: kind, Key: key, Message: message}
}

func (e *Error) Error() string {
	switch {
	case e.Key != "" && e.Message != "":
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Key, e.Message)
	case e.Key != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Key)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.cause
}

// AsError converts any error returned by a transport into *Error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var rfcErr *Error
	if errors.As(err, &rfcErr) {
		return rfcErr
	}
	return &Error{Kind: KindCommunication, Message: err.Error(), cause: err}
}

// HasKey reports whether err carries the given exception key, either as its
// key or inside its message text.
func HasKey(err error, key string) bool {
	if err == nil {
		return false
	}
	var rfcErr *Error
	if errors.As(err, &rfcErr) && rfcErr.Key == key {
		return true
	}
	return strings.Contains(err.Error(), key)
}

// IsBufferExceeded reports whether err is the table-read buffer overflow.
func IsBufferExceeded(err error) bool {
	return HasKey(err, KeyDataBufferExceeded)
}
