package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"carebook/internal/apiclient"
)

const (
	// RequestIDHeader is the standard header name used to propagate request IDs.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is the key used to store the request ID in Fiber's context locals.
	RequestIDLocalKey = "request_id"
)

// RequestID ensures every request has a request ID.
//
// Behavior:
//   - Reads X-Request-ID from the incoming request header, generating a UUID if missing.
//   - Stores the value in Fiber context locals under RequestIDLocalKey.
//   - Attaches it to the user context so backend calls forward the same id.
//   - Echoes it in the X-Request-ID response header.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.SetUserContext(apiclient.WithRequestID(c.UserContext(), id))
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}

// RequestIDFrom returns the id stored by RequestID, or "".
func RequestIDFrom(c *fiber.Ctx) string {
	s, _ := c.Locals(RequestIDLocalKey).(string)
	return s
}
