package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"carebook/internal/apiclient"
	"carebook/internal/model"
	"carebook/internal/service"
)

// SessionLocalKey is the Fiber locals key holding the resolved *model.Session.
const SessionLocalKey = "session"

// SessionResolver looks up a live session by id. service.AuthService implements it.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (*model.Session, error)
}

// SessionID returns the session id presented by the client: the session
// cookie, or else an "Authorization: Bearer <id>" header.
func SessionID(c *fiber.Ctx, cookieName string) string {
	if id := c.Cookies(cookieName); id != "" {
		return id
	}
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireSession rejects requests without a live session. On success the
// session is stored under SessionLocalKey and its backend token is attached
// to the user context for outbound calls.
func RequireSession(sessions SessionResolver, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := SessionID(c, cookieName)
		if id == "" {
			return service.ErrUnauthorized
		}
		sess, err := sessions.Resolve(c.UserContext(), id)
		if err != nil {
			return err
		}

		c.Locals(SessionLocalKey, sess)
		c.SetUserContext(apiclient.WithToken(c.UserContext(), sess.BackendToken))

		return c.Next()
	}
}

// SessionFrom returns the session stored by RequireSession, or nil.
func SessionFrom(c *fiber.Ctx) *model.Session {
	s, _ := c.Locals(SessionLocalKey).(*model.Session)
	return s
}
