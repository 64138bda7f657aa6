package main

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"carebook/internal/config"
	"carebook/internal/logging"
)

const version = "1.0.0"

// runner carries what every subcommand needs: configuration, the logger and
// where to print command output.
type runner struct {
	cfg    *config.AppConfig
	logger *log.Logger
	out    io.Writer
}

func newRunner(out io.Writer) *runner {
	return &runner{out: out}
}

// setup loads the environment once the global flags are parsed.
func (r *runner) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.cfg = config.Load()
	r.logger = logging.New(nil, r.cfg.Location(), cmd.String("log-level"))
	return ctx, nil
}

func (r *runner) register() []*cli.Command {
	return []*cli.Command{
		serveCommand(r),
		migrateCommand(r),
		idCommand(r),
	}
}
