// Package crypto implements the at-rest field encryption capability consumed
// by the client repository. Callers reach it only through guard-approved code
// paths; the authorization core itself never touches ciphertext.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// FieldCipher encrypts and decrypts individual record fields.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// AESGCM is a FieldCipher backed by AES-256-GCM with a random nonce per call.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM builds a cipher from a hex-encoded 32-byte key.
func NewAESGCM(hexKey string) (*AESGCM, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("platform/crypto: decode key: %w", err)
	}
	if len(key) != 32 {
		return nil, errors.New("platform/crypto: key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("platform/crypto: new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("platform/crypto: new gcm: %w", err)
	}
	return &AESGCM{aead: aead}, nil
}

// Encrypt seals the plaintext with a fresh nonce and returns base64 output.
func (c *AESGCM) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("platform/crypto: nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens base64 ciphertext produced by Encrypt.
func (c *AESGCM) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("platform/crypto: decode: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", errors.New("platform/crypto: ciphertext too short")
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	opened, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("platform/crypto: open: %w", err)
	}
	return string(opened), nil
}

var _ FieldCipher = (*AESGCM)(nil)
