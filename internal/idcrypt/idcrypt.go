// Package idcrypt turns backend identifiers into opaque URL-safe tokens and back.
//
// Hospital, doctor, appointment and user ids never leave the portal in clear
// text. Tokens are AES-256-GCM ciphertexts (random nonce) encoded with
// unpadded base64url, so they can be used directly as path segments.
package idcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const keyInfo = "carebook/idcrypt/v1"

var (
	ErrEmptySecret  = errors.New("idcrypt: secret is required")
	ErrEmptyID      = errors.New("idcrypt: id is empty")
	ErrInvalidToken = errors.New("idcrypt: invalid token")
)

var encoding = base64.RawURLEncoding

// Codec encrypts and decrypts identifiers. It is safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
}

// New derives the AES key from secret and returns a ready Codec.
func New(secret string) (*Codec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encrypt returns an opaque token for id.
func (c *Codec) Encrypt(id string) (string, error) {
	if id == "" {
		return "", ErrEmptyID
	}
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(id)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(id), nil)
	return encoding.EncodeToString(sealed), nil
}

// Decrypt recovers the id behind token.
func (c *Codec) Decrypt(token string) (string, error) {
	raw, err := encoding.DecodeString(token)
	if err != nil {
		return "", ErrInvalidToken
	}
	ns := c.aead.NonceSize()
	if len(raw) <= ns+c.aead.Overhead() {
		return "", ErrInvalidToken
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", ErrInvalidToken
	}
	return string(plain), nil
}
