package main

import "github.com/urfave/cli/v3"

func serveCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the portal HTTP server",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "skip-migrations",
				Usage:   "Do not apply database migrations on startup",
				Sources: cli.EnvVars("SKIP_MIGRATIONS"),
			},
		},
		Action: r.Serve,
	}
}

func migrateCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Apply pending database migrations and exit",
		Action: r.Migrate,
	}
}

func idCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "id",
		Usage: "Encrypt or decrypt identifiers exposed to the browser",
		Commands: []*cli.Command{
			{
				Name:  "encrypt",
				Usage: "Print the browser token for a backend id",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.Encrypt,
			},
			{
				Name:  "decrypt",
				Usage: "Print the backend id behind a browser token",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "token"},
				},
				Action: r.Decrypt,
			},
		},
	}
}
