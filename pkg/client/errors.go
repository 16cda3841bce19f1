package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed fetch.
type ErrorKind string

const (
	// KindInvalidRequest means the request target could not be built.
	KindInvalidRequest ErrorKind = "invalid_request"

	// KindNoResponseBody means no usable body arrived (transport failure or empty 2xx).
	KindNoResponseBody ErrorKind = "no_response_body"

	// KindDecodingFailure means the body did not match the expected schema.
	KindDecodingFailure ErrorKind = "decoding_failure"

	// KindServerError means GitHub answered with a non-2xx status.
	KindServerError ErrorKind = "server_error"
)

// FetchError is returned by every failed FetchPage and FetchDetail call.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int // set for KindServerError
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	msg := fmt.Sprintf("github %s", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Temporary reports whether a caller-side retry may succeed.
// Server errors >= 500, 429 and transport failures are temporary.
func (e *FetchError) Temporary() bool {
	switch e.Kind {
	case KindServerError:
		return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
	case KindNoResponseBody:
		return e.Err != nil
	default:
		return false
	}
}

// IsKind reports whether err is a *FetchError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}

// IsTemporary reports whether err is a *FetchError worth retrying.
func IsTemporary(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Temporary()
}

// StatusCode returns the HTTP status carried by a server error, or 0.
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}
