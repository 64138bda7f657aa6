package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"carebook/internal/idcrypt"
)

var errMissingArgument = errors.New("missing argument")

func (r *runner) codec() (*idcrypt.Codec, error) {
	c, err := idcrypt.New(r.cfg.Crypto.IDSecret)
	if err != nil {
		return nil, fmt.Errorf("ID_ENCRYPTION_SECRET: %w", err)
	}
	return c, nil
}

// Encrypt prints the token the portal would expose for a backend id.
func (r *runner) Encrypt(_ context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: id", errMissingArgument)
	}
	c, err := r.codec()
	if err != nil {
		return err
	}
	tok, err := c.Encrypt(id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.out, tok)
	return err
}

// Decrypt prints the backend id behind a token taken from a URL or response.
func (r *runner) Decrypt(_ context.Context, cmd *cli.Command) error {
	tok := cmd.StringArg("token")
	if tok == "" {
		return fmt.Errorf("%w: token", errMissingArgument)
	}
	c, err := r.codec()
	if err != nil {
		return err
	}
	id, err := c.Decrypt(tok)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.out, id)
	return err
}
