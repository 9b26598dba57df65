package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds every client call maps its failures onto. Match with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrForbidden          = errors.New("not permitted for this role")
	ErrNotFound           = errors.New("not found")
	ErrTransient          = errors.New("request failed")
)

// APIError is a non-2xx answer from the tracker API
type APIError struct {
	StatusCode int
	Code       string // Machine readable code from the error body
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap exposes the error kind so callers can use errors.Is
func (e *APIError) Unwrap() error {
	switch {
	case e.Code == "duplicate_user":
		return ErrDuplicateUser
	case e.Code == "invalid_credentials":
		return ErrInvalidCredentials
	case e.StatusCode == http.StatusBadRequest:
		return ErrValidation
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrTransient
	}
}
