package bmkg

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the failure categories of the fetch/normalize
// boundary. Callers branch on the kind instead of inspecting error text.
type ErrorKind string

const (
	// KindNetworkError covers timeouts, DNS failures, connection refusals
	// and non-2xx upstream responses.
	KindNetworkError ErrorKind = "network_error"
	// KindMalformedPayload covers bodies that could not be decoded.
	KindMalformedPayload ErrorKind = "malformed_payload"
	// KindEmptyResult covers responses that decoded fine but contained no
	// usable forecast data (unknown region code, empty data array).
	KindEmptyResult ErrorKind = "empty_result"
)

// Error is the error type returned by the fetch pipeline
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error with the given kind and message
func NewError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the ErrorKind from an error chain. Errors from outside
// this package map to KindNetworkError as the most conservative category.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNetworkError
}
