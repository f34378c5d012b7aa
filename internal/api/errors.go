// Package api provides the authenticated HTTP gateway for the prooflab
// backend. Every outbound backend call is routed through Client, which
// attaches bearer credentials, recovers from expired access tokens via a
// single-flight refresh, and classifies failures.
package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, api.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("api: bad request")
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrForbidden    = errors.New("api: forbidden")
	ErrNotFound     = errors.New("api: not found")
	ErrNotAllowed   = errors.New("api: method not allowed")
	ErrConflict     = errors.New("api: conflict")
	ErrThrottled    = errors.New("api: throttled")
	ErrServerError  = errors.New("api: server error")
)

// ErrNotLoggedIn is returned when no usable credentials exist: the session
// is empty, or a token refresh failed and the session was cleared. Callers
// should direct the user to sign in again.
var ErrNotLoggedIn = errors.New("api: not logged in")

// ErrValidation marks input errors caught before any network call
// (empty selections, out-of-range expiry dates, blank filenames).
var ErrValidation = errors.New("api: validation failed")

// Error is the normalized shape of a backend failure: the HTTP status, a
// message, and the decoded response payload when one was present. It wraps
// a sentinel for errors.Is checks. Transport failures (no response at all)
// are not wrapped in Error — they propagate as plain wrapped errors.
type Error struct {
	Status  int
	Message string
	Data    any
	Err     error // sentinel, for errors.Is()
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: HTTP %d: %s", e.Status, e.Message)
	}

	return fmt.Sprintf("api: HTTP %d", e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusMethodNotAllowed:
		return ErrNotAllowed
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}
