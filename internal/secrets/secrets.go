// Package secrets provides the keyed encryption used for values stored
// at rest, such as the language-model API key.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/nacl/secretbox"
)

const keySize = 32

// Box encrypts and decrypts short string values with a symmetric key
// kept in a file next to the data store. The key is generated once on
// first use and must never be regenerated: replacing it orphans every
// value encrypted under the old key.
type Box struct {
	key [keySize]byte
}

// Open loads the key from keyPath, generating and persisting a new one
// when the file does not exist yet.
func Open(keyPath string) (*Box, error) {
	b := &Box{}

	raw, err := os.ReadFile(keyPath)
	switch {
	case err == nil:
		if len(raw) != keySize {
			return nil, fmt.Errorf("key file %s has %d bytes, want %d", keyPath, len(raw), keySize)
		}
		copy(b.key[:], raw)
		return b, nil
	case os.IsNotExist(err):
		if _, err := rand.Read(b.key[:]); err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(keyPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create key directory: %w", err)
		}
		if err := os.WriteFile(keyPath, b.key[:], 0600); err != nil {
			return nil, fmt.Errorf("failed to persist key: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
}

// Encrypt seals the value and returns it base64-encoded.
func (b *Box) Encrypt(value string) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(value), &nonce, &b.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It fails on values sealed under a
// different key or tampered ciphertext.
func (b *Box) Decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode value: %w", err)
	}
	if len(sealed) < 24 {
		return "", fmt.Errorf("encrypted value too short")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &b.key)
	if !ok {
		return "", fmt.Errorf("failed to decrypt value")
	}
	return string(plain), nil
}
