package handler

import (
	"github.com/gofiber/fiber/v2"

	"carebook/internal/http/middleware"
	"carebook/internal/model"
	"carebook/internal/service"
)

// userID returns the backend user id of the session set by RequireSession.
func userID(c *fiber.Ctx) (string, bool) {
	s := middleware.SessionFrom(c)
	if s == nil || s.UserID == "" {
		return "", false
	}
	return s.UserID, true
}

func unauthorized(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
}

// ListAppointments godoc
// @Summary My appointments
// @Tags appointments
// @Produce json
// @Security Session
// @Success 200 {array} model.Appointment
// @Failure 401 {object} errorPayload
// @Router /api/appointments [get]
func ListAppointments(appts service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return unauthorized(c)
		}
		list, err := appts.List(c.UserContext(), uid)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(list)
	}
}

// BookAppointment godoc
// @Summary Book an appointment
// @Tags appointments
// @Accept json
// @Produce json
// @Security Session
// @Param booking body model.BookingRequest true "Doctor, date and time slot"
// @Success 201 {object} model.Appointment
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /api/appointments [post]
func BookAppointment(appts service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return unauthorized(c)
		}
		var in model.BookingRequest
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		}
		a, err := appts.Book(c.UserContext(), uid, in)
		if err != nil {
			return respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(a)
	}
}

// GetAppointment godoc
// @Summary Appointment confirmation
// @Tags appointments
// @Produce json
// @Security Session
// @Param id path string true "Appointment id"
// @Success 200 {object} model.Appointment
// @Failure 404 {object} errorPayload
// @Router /api/appointments/{id} [get]
func GetAppointment(appts service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return unauthorized(c)
		}
		a, err := appts.Get(c.UserContext(), uid, c.Params("id"))
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(a)
	}
}

// CancelAppointment godoc
// @Summary Cancel an appointment
// @Tags appointments
// @Produce json
// @Security Session
// @Param id path string true "Appointment id"
// @Success 200 {object} model.Appointment
// @Failure 404 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /api/appointments/{id}/cancel [post]
func CancelAppointment(appts service.AppointmentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := userID(c)
		if !ok {
			return unauthorized(c)
		}
		a, err := appts.Cancel(c.UserContext(), uid, c.Params("id"))
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(a)
	}
}
