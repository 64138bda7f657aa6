// Package service holds the portal use cases. Each service validates what the
// patient submitted, delegates to the booking backend, and swaps raw backend
// identifiers for encrypted tokens on the way out (and back on the way in).
package service

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"carebook/internal/idcrypt"
)

// IDCodec turns backend ids into opaque tokens and back. *idcrypt.Codec implements it.
type IDCodec interface {
	Encrypt(id string) (string, error)
	Decrypt(token string) (string, error)
}

var _ IDCodec = (*idcrypt.Codec)(nil)

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

// ids wraps an IDCodec with the conversions every service needs.
type ids struct {
	codec IDCodec
}

// open decrypts a token coming from the browser.
func (c ids) open(token, field string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", newError(ErrInvalidID, field+" is required", nil)
	}
	id, err := c.codec.Decrypt(token)
	if err != nil {
		return "", newError(ErrInvalidID, field+" is not valid", err)
	}
	return id, nil
}

// seal encrypts an id going to the browser; empty ids stay empty.
func (c ids) seal(id string) (string, error) {
	if id == "" {
		return "", nil
	}
	return c.codec.Encrypt(id)
}

// sealAll encrypts each pointed-to id in place.
func (c ids) sealAll(fields ...*string) error {
	var errs []error
	for _, f := range fields {
		tok, err := c.seal(*f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*f = tok
	}
	return errors.Join(errs...)
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, "@")
}
