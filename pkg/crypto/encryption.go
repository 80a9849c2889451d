// Package crypto protects stored provider credentials at rest. The key
// is derived from an application-wide secret with PBKDF2-SHA256 and the
// payload is sealed with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLength  = 32
	iterations = 100000
)

// Fixed salt: the derived key must be stable across restarts so that
// previously stored ciphertexts remain readable.
var keySalt = []byte("whatsapp_bot_salt")

// Cipher encrypts and decrypts credential values with a key derived
// from the application secret.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the symmetric key from the given secret and returns
// a ready-to-use cipher.
func NewCipher(secret string) (*Cipher, error) {
	key := pbkdf2.Key([]byte(secret), keySalt, iterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals a credential value. Empty values stay empty so that
// absent credentials round-trip as absent.
func (c *Cipher) Encrypt(value string) (string, error) {
	if value == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(value), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a stored ciphertext. Malformed or tampered input is
// treated as an absent credential: the result is the empty string and
// no error is ever surfaced to the caller.
func (c *Cipher) Decrypt(encrypted string) string {
	if encrypted == "" {
		return ""
	}

	raw, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return ""
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return ""
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return ""
	}

	return string(plaintext)
}
