package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"carebook/internal/http/middleware"
	"carebook/internal/model"
	"carebook/internal/service"
)

// SessionCookie configures the session cookie set on login.
type SessionCookie struct {
	Name   string
	Secure bool
}

type authResponse struct {
	SessionID string            `json:"session_id"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      model.UserProfile `json:"user"`
}

func (sc SessionCookie) set(c *fiber.Ctx, s *model.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     sc.Name,
		Value:    s.ID,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HTTPOnly: true,
		Secure:   sc.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (sc SessionCookie) clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sc.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   sc.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func loggedIn(c *fiber.Ctx, sc SessionCookie, status int, res *service.LoginResult) error {
	sc.set(c, res.Session)
	return c.Status(status).JSON(authResponse{
		SessionID: res.Session.ID,
		ExpiresAt: res.Session.ExpiresAt,
		User:      res.User,
	})
}

// Login godoc
// @Summary Log in
// @Description Checks credentials with the booking service and opens a portal session (cookie and session_id).
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body model.Credentials true "Email and password"
// @Success 200 {object} authResponse
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /api/auth/login [post]
func Login(auth service.AuthService, sc SessionCookie) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in model.Credentials
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		}
		res, err := auth.Login(c.UserContext(), in)
		if err != nil {
			return respond(c, err)
		}
		return loggedIn(c, sc, fiber.StatusOK, res)
	}
}

// Register godoc
// @Summary Sign up
// @Description Creates the account and logs the new user in.
// @Tags auth
// @Accept json
// @Produce json
// @Param registration body model.Registration true "New account"
// @Success 201 {object} authResponse
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /api/auth/register [post]
func Register(auth service.AuthService, sc SessionCookie) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in model.Registration
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		}
		res, err := auth.Register(c.UserContext(), in)
		if err != nil {
			return respond(c, err)
		}
		return loggedIn(c, sc, fiber.StatusCreated, res)
	}
}

// Logout godoc
// @Summary Log out
// @Tags auth
// @Success 204
// @Router /api/auth/logout [post]
func Logout(auth service.AuthService, sc SessionCookie) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := middleware.SessionID(c, sc.Name); id != "" {
			if err := auth.Logout(c.UserContext(), id); err != nil {
				return respond(c, err)
			}
		}
		sc.clear(c)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
