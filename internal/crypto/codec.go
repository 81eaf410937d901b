// Package crypto encrypts resident PII columns at rest.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrMalformedCiphertext reports ciphertext that cannot be decoded or
// authenticated.
var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// Codec performs authenticated encryption of short PII strings using
// XChaCha20-Poly1305. Ciphertext is base64 of nonce||sealed.
type Codec struct {
	key [chacha20poly1305.KeySize]byte
}

// NewCodec derives a fixed-size key from the configured secret.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("pii key is required")
	}
	c := &Codec{key: sha256.Sum256([]byte(secret))}
	return c, nil
}

func (c *Codec) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key[:])
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Codec) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrMalformedCiphertext
	}

	aead, err := chacha20poly1305.NewX(c.key[:])
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrMalformedCiphertext
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	return string(plaintext), nil
}

// DecryptOrNil decrypts a single payload field, degrading to nil on failure so
// one bad column never aborts a whole response. Failures are logged.
func (c *Codec) DecryptOrNil(logger *zerolog.Logger, field, ciphertext string) *string {
	if ciphertext == "" {
		return nil
	}
	plaintext, err := c.Decrypt(ciphertext)
	if err != nil {
		if logger != nil {
			logger.Warn().Str("field", field).Msg("Failed to decrypt payload field")
		}
		return nil
	}
	return &plaintext
}
