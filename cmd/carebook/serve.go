package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"carebook/docs"
	"carebook/internal/apiclient"
	"carebook/internal/backend"
	"carebook/internal/database"
	"carebook/internal/database/migration"
	handlers "carebook/internal/http/handler"
	"carebook/internal/http/middleware"
	"carebook/internal/idcrypt"
	tracing "carebook/internal/otel"
	"carebook/internal/repository/postgres"
	"carebook/internal/service"
	"carebook/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// Serve wires the portal and blocks until ctx is cancelled.
func (r *runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.cfg
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := r.logger

	shutdownTracing, err := tracing.Init(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing_shutdown_failed", "error", err)
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if !cmd.Bool("skip-migrations") {
		if err := migration.Up(ctx, db, logger, cfg.Database.Host); err != nil {
			return err
		}
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	codec, err := idcrypt.New(cfg.Crypto.IDSecret)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	api, err := apiclient.New(cfg.Backend, apiclient.WithMetrics(reg))
	if err != nil {
		return fmt.Errorf("failed to initialize backend client: %w", err)
	}
	gateway := backend.NewREST(api)

	svcs := handlers.Services{
		Auth:         service.NewAuthService(gateway, postgres.NewSessionPostgres(db), codec, cfg.Session.TTL, nil),
		Directory:    service.NewDirectoryService(gateway, codec),
		Appointments: service.NewAppointmentService(gateway, codec, cfg.Location(), nil),
		Profiles: service.NewProfileService(gateway, objStore, postgres.NewAvatarPostgres(db), codec, service.AvatarLimits{
			MaxBytes:   cfg.Avatar.MaxBytes,
			PresignTTL: cfg.Avatar.PresignTTL,
		}, logger, nil),
	}

	if n, err := svcs.Auth.PurgeExpired(ctx); err != nil {
		logger.Warn("session_purge_failed", "error", err)
	} else if n > 0 {
		logger.Info("session_purge", "deleted", n)
	}

	app, err := newApp(logger, reg, db, svcs, handlers.SessionCookie{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.Secure,
	}, cfg.Avatar.MaxBytes)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_start", "addr", ":"+cfg.Port, "version", version)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server_shutdown")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newApp builds the Fiber application with the global middleware chain,
// /metrics, swagger UI and the portal routes.
func newApp(logger *log.Logger, reg *prometheus.Registry, db *sql.DB, svcs handlers.Services, sc handlers.SessionCookie, maxUpload int64) (*fiber.App, error) {
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "carebook",
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             int(maxUpload) + 64<<10,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		p := c.Path()
		return p == "/metrics" || p == "/healthz" || strings.HasPrefix(p, "/swagger")
	})))
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, db, svcs, sc)

	return app, nil
}

// Migrate applies pending migrations without starting the server.
func (r *runner) Migrate(ctx context.Context, _ *cli.Command) error {
	if r.cfg.Database.Host == "" {
		return errors.New("DB_HOST is required")
	}
	db, err := database.NewPostgres(ctx, r.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return migration.Up(ctx, db, r.logger, r.cfg.Database.Host)
}
