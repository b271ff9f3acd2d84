// Package spapi provides an HTTP client for the SharePoint REST API:
// request construction, authentication, form-digest handling, and error
// classification.
package spapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, spapi.ErrNotFound) to check.
var (
	ErrBadRequest   = errors.New("spapi: bad request")
	ErrUnauthorized = errors.New("spapi: unauthorized")
	ErrForbidden    = errors.New("spapi: forbidden")
	ErrNotFound     = errors.New("spapi: not found")
	ErrConflict     = errors.New("spapi: conflict")
	ErrServerError  = errors.New("spapi: server error")
)

// ErrAuthFailed is returned when the security token service or the sign-in
// endpoint rejects the supplied credentials.
var ErrAuthFailed = errors.New("spapi: authentication failed")

// APIError wraps a sentinel error with the HTTP status code and the API
// error message body for debugging.
type APIError struct {
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spapi: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
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
	case http.StatusConflict:
		return ErrConflict
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}
