package handler

import (
	"github.com/gofiber/fiber/v2"

	"carebook/internal/http/middleware"
	"carebook/internal/service"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Auth         service.AuthService
	Directory    service.DirectoryService
	Appointments service.AppointmentService
	Profiles     service.ProfileService
}

// RegisterRoutes attaches the health probes and the /api routes to app.
// Appointment and profile routes require a session.
func RegisterRoutes(app *fiber.App, db Pinger, svc Services, sc SessionCookie) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Get("/landing", Landing(svc.Directory))

	auth := api.Group("/auth")
	auth.Post("/login", Login(svc.Auth, sc))
	auth.Post("/register", Register(svc.Auth, sc))
	auth.Post("/logout", Logout(svc.Auth, sc))

	api.Get("/hospitals", ListHospitals(svc.Directory))
	api.Get("/hospitals/:id", GetHospital(svc.Directory))
	api.Get("/hospitals/:id/doctors", ListHospitalDoctors(svc.Directory))
	api.Get("/doctors", ListDoctors(svc.Directory))
	api.Get("/doctors/:id", GetDoctor(svc.Directory))

	requireSession := middleware.RequireSession(svc.Auth, sc.Name)

	appts := api.Group("/appointments", requireSession)
	appts.Get("/", ListAppointments(svc.Appointments))
	appts.Post("/", BookAppointment(svc.Appointments))
	appts.Get("/:id", GetAppointment(svc.Appointments))
	appts.Post("/:id/cancel", CancelAppointment(svc.Appointments))

	profile := api.Group("/profile", requireSession)
	profile.Get("/", GetProfile(svc.Profiles))
	profile.Put("/", UpdateProfile(svc.Profiles))
	profile.Post("/avatar", UploadAvatar(svc.Profiles))
	profile.Get("/avatar", GetAvatarURL(svc.Profiles))
	profile.Get("/avatar/image", GetAvatarImage(svc.Profiles))
}
