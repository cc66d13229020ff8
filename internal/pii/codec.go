package pii

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Codec encrypts customer contact fields at the persistence boundary.
// A nil or key-less Codec is a passthrough; the core treats the fields
// as plain strings either way.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a codec from a 32-byte key. A nil or empty key yields
// a passthrough codec.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) == 0 {
		return &Codec{}, nil
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("pii codec: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encode encrypts plain text into base64(nonce || ciphertext).
// Empty strings pass through unchanged.
func (c *Codec) Encode(plain string) (string, error) {
	if c == nil || c.aead == nil || plain == "" {
		return plain, nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("pii codec: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Decode reverses Encode.
func (c *Codec) Decode(encoded string) (string, error) {
	if c == nil || c.aead == nil || encoded == "" {
		return encoded, nil
	}
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("pii codec: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", errors.New("pii codec: ciphertext too short")
	}
	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("pii codec: %w", err)
	}
	return string(plain), nil
}
