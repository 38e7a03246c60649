// Package secrets encrypts credentials stored at rest.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var ErrDecrypt = errors.New("secrets: decryption failed")

// Box seals and opens short secrets with a key derived from a passphrase.
type Box struct {
	key [32]byte
}

// NewBox derives the key as sha256(passphrase).
func NewBox(passphrase string) (*Box, error) {
	if passphrase == "" {
		return nil, errors.New("secrets: empty passphrase")
	}
	return &Box{key: sha256.Sum256([]byte(passphrase))}, nil
}

// Seal encrypts plaintext and returns base64(nonce || ciphertext).
// An empty plaintext seals to "".
func (b *Box) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("secrets: read nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (b *Box) Open(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrDecrypt
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plain), nil
}
