// Package sealer issues opaque confirmation references for bookings.
// The reference encrypts the tenant and booking ids so a caller can
// quote it back over the phone without exposing internal identifiers.
package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

type Sealer struct {
	aead cipher.AEAD
}

// New builds a sealer from a base64-encoded 256-bit key.
func New(encodedKey string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("confirmation key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("confirmation key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Sealer{aead: aead}, nil
}

// Seal produces the opaque confirmation reference for a booking.
func (s *Sealer) Seal(tenantID, bookingID string) (string, error) {
	plaintext := []byte(tenantID + ":" + bookingID)

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ct := s.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

// Open decodes a confirmation reference back into tenant and booking ids.
func (s *Sealer) Open(token string) (string, string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("invalid confirmation reference")
	}

	nonceSize := s.aead.NonceSize()
	if len(data) <= nonceSize {
		return "", "", fmt.Errorf("invalid confirmation reference")
	}

	pt, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", "", fmt.Errorf("invalid confirmation reference")
	}

	parts := strings.SplitN(string(pt), ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid confirmation reference")
	}

	return parts[0], parts[1], nil
}
