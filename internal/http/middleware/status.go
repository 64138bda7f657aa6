package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"carebook/internal/service"
)

// StatusOf maps an error returned by a handler to the HTTP status the error
// handler will answer with.
func StatusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidID):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrUpstream):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
