// Package credential seals member account passwords at rest.
//
// Passwords must be readable again by guild officers, so they are encrypted
// rather than hashed.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealedPrefix = "sb1:"
	nonceSize    = 24
)

// ErrOpenFailed is returned when a sealed value cannot be decrypted
var ErrOpenFailed = errors.New("credential: cannot open sealed value")

// Sealer converts between the caller's clear text and the stored form
type Sealer interface {
	Seal(plain string) (string, error)
	Open(stored string) (string, error)
}

// Plain stores values unchanged
type Plain struct{}

func (Plain) Seal(plain string) (string, error)  { return plain, nil }
func (Plain) Open(stored string) (string, error) { return stored, nil }

// SecretBox seals with NaCl secretbox under a key derived from a passphrase
type SecretBox struct {
	key [32]byte
}

// NewSecretBox derives the key with SHA-256 of the passphrase
func NewSecretBox(passphrase string) *SecretBox {
	return &SecretBox{key: sha256.Sum256([]byte(passphrase))}
}

// FromPassphrase returns Plain for an empty passphrase, SecretBox otherwise
func FromPassphrase(passphrase string) Sealer {
	if passphrase == "" {
		return Plain{}
	}
	return NewSecretBox(passphrase)
}

// Seal encrypts plain with a fresh random nonce: "sb1:" + base64(nonce || box)
func (s *SecretBox) Seal(plain string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to read nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key)
	return sealedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

// Open decrypts a sealed value. Values without the prefix were stored before
// sealing was enabled and are returned as-is.
func (s *SecretBox) Open(stored string) (string, error) {
	if !IsSealed(stored) {
		return stored, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrOpenFailed
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrOpenFailed
	}
	return string(plain), nil
}

// IsSealed reports whether stored carries the sealed prefix
func IsSealed(stored string) bool {
	return strings.HasPrefix(stored, sealedPrefix)
}
