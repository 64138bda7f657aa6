package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"carebook/internal/apiclient"
)

// Error kinds. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidID          = errors.New("invalid id")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("conflict")
	ErrUpstream           = errors.New("upstream error")
	ErrReaderNil          = errors.New("reader is nil")
)

// Error is a service failure of a given kind carrying a message that is safe
// to show to the patient.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func invalid(field, reason string) *Error {
	return newError(ErrInvalidInput, field+" "+reason, nil)
}

// Message returns the user-facing message carried by err, if any.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}

// fromBackend translates a backend failure into a service error kind.
func fromBackend(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		return newError(ErrUpstream, "", fmt.Errorf("%s: %w", what, err))
	}
	switch apiErr.Status {
	case http.StatusNotFound:
		return newError(ErrNotFound, what+" not found", err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return newError(ErrUnauthorized, apiErr.Message, err)
	case http.StatusConflict:
		return newError(ErrConflict, apiErr.Message, err)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return newError(ErrInvalidInput, apiErr.Message, err)
	default:
		return newError(ErrUpstream, "", err)
	}
}
