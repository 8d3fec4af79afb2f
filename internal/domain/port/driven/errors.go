package driven

import (
	"errors"
	"fmt"
)

// The Gateway error taxonomy. Every failed Gateway call returns exactly one
// of these kinds; callers match with errors.Is for the sentinels and
// errors.As for the kinds that carry data.
var (
	// ErrInvalidRequest means the request could not be constructed
	// (malformed path or body). Programmer error, not worth retrying.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidResponse means the transport succeeded but the response
	// framing is unusable (for example a success envelope whose success
	// flag is false).
	ErrInvalidResponse = errors.New("invalid response from server")

	// ErrUnauthorized means the credential is missing or was rejected.
	ErrUnauthorized = errors.New("unauthorized: please log in again")
)

// HTTPError is a backend-reported failure on a non-2xx status. Message is
// the backend's error string, passed through for display.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

// DecodeError means a response body did not match its expected shape. It
// carries enough context to diagnose: the offending raw value and, when
// known, the field path it sat at.
type DecodeError struct {
	Path  string
	Value string
	Err   error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Path != "" && e.Value != "":
		return fmt.Sprintf("failed to decode response: field %q: cannot decode %q", e.Path, e.Value)
	case e.Value != "":
		return fmt.Sprintf("failed to decode response: cannot decode %q", e.Value)
	case e.Path != "":
		return fmt.Sprintf("failed to decode response: field %q", e.Path)
	}
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NetworkError wraps a transport-level failure (DNS, TLS, timeout,
// connection reset). The gateway never retries these itself; retry policy
// belongs to callers.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
