package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

// @title CareBook Patient Portal API
// @version 1.0
// @description Patient-facing API for hospital search, doctor booking and profile management.
// @BasePath /
// @securityDefinitions.apikey Session
// @in header
// @name Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := newRunner(os.Stdout)
	app := &cli.Command{
		Name:    "carebook",
		Usage:   "Patient portal for the CareBook appointment booking service",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Minimum log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before:         r.setup,
		DefaultCommand: "serve",
		Commands:       r.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal("application error", "error", err)
	}
}
