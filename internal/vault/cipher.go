// Package vault implements the credential vault: an AES-256-GCM cipher for
// token payloads and a cookie-backed store for the resulting blobs.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/prodpilot/prodpilot/internal/domain"
)

const (
	// Blob layout is base64(nonce || tag || ciphertext).
	nonceSize = 12
	tagSize   = 16
	keySize   = 32
)

// Cipher performs authenticated encryption of credential payloads under a
// single process-wide key. Changing the key invalidates every blob written
// with the old one; there is no rotation support.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a hex-encoded 32-byte key. An empty or
// malformed key is a fatal configuration condition for any code path that
// needs the vault.
func NewCipher(hexKey string) (*Cipher, error) {
	if hexKey == "" {
		return nil, domain.NewConfigurationError("TOKEN_ENCRYPTION_KEY")
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY is not valid hex: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("invalid encryption key length: expected %d bytes, got %d", keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns the
// base64-encoded blob.
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal returns ciphertext || tag; the blob stores nonce || tag || ciphertext.
	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	ct := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	blob := make([]byte, 0, nonceSize+len(sealed))
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, ct...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens a blob produced by Encrypt. A tampered blob or a wrong key
// yields a DecryptionError, never partial plaintext.
func (c *Cipher) Decrypt(blob string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, &domain.DecryptionError{Err: fmt.Errorf("invalid base64 encoding: %w", err)}
	}
	if len(raw) < nonceSize+tagSize {
		return nil, &domain.DecryptionError{Err: fmt.Errorf("blob too short: %d bytes", len(raw))}
	}

	nonce := raw[:nonceSize]
	tag := raw[nonceSize : nonceSize+tagSize]
	ct := raw[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, &domain.DecryptionError{Err: err}
	}

	return plaintext, nil
}
