package handler

import (
	"github.com/gofiber/fiber/v2"

	"carebook/internal/model"
	"carebook/internal/service"
)

type landingResponse struct {
	Featured []model.Hospital `json:"featured"`
}

// Landing godoc
// @Summary Landing page data
// @Description Returns the best rated hospitals.
// @Tags directory
// @Produce json
// @Param limit query int false "Number of hospitals" default(6)
// @Success 200 {object} landingResponse
// @Failure 502 {object} errorPayload
// @Router /api/landing [get]
func Landing(dir service.DirectoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", service.DefaultFeaturedCount)
		if limit < 1 || limit > 50 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", "limit must be between 1 and 50")
		}
		hs, err := dir.Featured(c.UserContext(), limit)
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(landingResponse{Featured: hs})
	}
}

// ListHospitals godoc
// @Summary List hospitals
// @Tags directory
// @Produce json
// @Param q query string false "Name or city contains"
// @Success 200 {array} model.Hospital
// @Failure 502 {object} errorPayload
// @Router /api/hospitals [get]
func ListHospitals(dir service.DirectoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		hs, err := dir.ListHospitals(c.UserContext(), c.Query("q"))
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(hs)
	}
}

// GetHospital godoc
// @Summary Hospital details
// @Tags directory
// @Produce json
// @Param id path string true "Hospital id"
// @Success 200 {object} model.Hospital
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/hospitals/{id} [get]
func GetHospital(dir service.DirectoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h, err := dir.GetHospital(c.UserContext(), c.Params("id"))
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(h)
	}
}

// ListHospitalDoctors godoc
// @Summary Doctors of a hospital
// @Tags directory
// @Produce json
// @Param id path string true "Hospital id"
// @Param specialization query string false "Specialization"
// @Success 200 {array} model.Doctor
// @Failure 400 {object} errorPayload
// @Router /api/hospitals/{id}/doctors [get]
func ListHospitalDoctors(dir service.DirectoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := dir.ListDoctors(c.UserContext(), model.DoctorFilter{
			HospitalID:     c.Params("id"),
			Specialization: c.Query("specialization"),
			Query:          c.Query("q"),
		})
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(docs)
	}
}

// ListDoctors godoc
// @Summary Search doctors
// @Tags directory
// @Produce json
// @Param hospital query string false "Hospital id"
// @Param specialization query string false "Specialization"
// @Param q query string false "Name contains"
// @Success 200 {array} model.Doctor
// @Failure 400 {object} errorPayload
// @Router /api/doctors [get]
func ListDoctors(dir service.DirectoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := dir.ListDoctors(c.UserContext(), model.DoctorFilter{
			HospitalID:     c.Query("hospital"),
			Specialization: c.Query("specialization"),
			Query:          c.Query("q"),
		})
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(docs)
	}
}

// GetDoctor godoc
// @Summary Doctor details
// @Tags directory
// @Produce json
// @Param id path string true "Doctor id"
// @Success 200 {object} model.Doctor
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/doctors/{id} [get]
func GetDoctor(dir service.DirectoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := dir.GetDoctor(c.UserContext(), c.Params("id"))
		if err != nil {
			return respond(c, err)
		}
		return c.JSON(d)
	}
}
