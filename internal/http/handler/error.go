package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"carebook/internal/http/middleware"
	"carebook/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// respond translates a service or router error into the standardized payload.
// Only messages carried by service errors of client-side kinds reach the body.
func respond(c *fiber.Ctx, err error) error {
	status := middleware.StatusOf(err)
	code, message := describe(status, err)
	if status < fiber.StatusInternalServerError {
		if m := service.Message(err); m != "" {
			message = m
		}
	}
	return writeError(c, status, code, message)
}

func describe(status int, err error) (code, message string) {
	switch status {
	case fiber.StatusBadRequest:
		switch {
		case errors.Is(err, service.ErrInvalidID):
			return "INVALID_ID", "invalid id"
		case errors.Is(err, service.ErrInvalidInput):
			return "INVALID_INPUT", "invalid input"
		}
		return "BAD_REQUEST", "bad request"
	case fiber.StatusUnauthorized:
		if errors.Is(err, service.ErrInvalidCredentials) {
			return "INVALID_CREDENTIALS", "email or password is incorrect"
		}
		return "UNAUTHORIZED", "authentication required"
	case fiber.StatusNotFound:
		return "NOT_FOUND", "resource not found"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED", "method not allowed"
	case fiber.StatusConflict:
		return "CONFLICT", "request conflicts with the current state"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE", "request body too large"
	case fiber.StatusBadGateway:
		return "UPSTREAM_ERROR", "booking service unavailable"
	default:
		return "INTERNAL_ERROR", "internal server error"
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return respond(c, err)
	}
}
