// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package security seals stored provider credentials at rest.
//
// Sealed values use AES-256-GCM and are written as "ENC:" followed by
// base64(nonce|ciphertext|tag). The key is either derived from a
// passphrase with PBKDF2-SHA-256 or a random master key kept in a 0600 file.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/protoforge/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// EncryptedPrefix marks a sealed value (format: ENC:base64(nonce|ciphertext|tag)).
const EncryptedPrefix = "ENC:"

// NonceSize is the size of the AES-GCM nonce (12 bytes / 96 bits).
const NonceSize = 12

// KeySize is the size of the AES-256 key (32 bytes / 256 bits).
const KeySize = 32

// SaltSize is the size of the salt for key derivation (32 bytes).
const SaltSize = 32

// PBKDF2Iterations follows the OWASP 2023 figure for PBKDF2-SHA-256.
const PBKDF2Iterations = 600000

// PassphraseEnv names the environment variable that switches sealing to a
// passphrase-derived key.
const PassphraseEnv = "PROTOFORGE_PASSPHRASE"

const (
	masterKeyFile = "master.key"
	saltFile      = "master.key.salt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidCiphertext indicates the sealed value is malformed.
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	// ErrDecryptionFailed indicates a wrong key or tampered data.
	ErrDecryptionFailed = errors.New("decryption failed: authentication tag mismatch")
)

// ZeroBytes overwrites key material once it is no longer needed.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// =============================================================================
// KEY DERIVATION
// =============================================================================

// GenerateSalt returns SaltSize random bytes.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// GenerateMasterKey returns a random AES-256 key.
func GenerateMasterKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	return key, nil
}

// DeriveKey derives a key from a passphrase and salt using PBKDF2-SHA-256.
func DeriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, PBKDF2Iterations, KeySize, sha256.New)
}

// =============================================================================
// SEALER
// =============================================================================

// Sealer encrypts and decrypts short secrets. It is safe for concurrent use;
// every Seal draws a fresh random nonce.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds a sealer from a raw 32-byte key. The key is not retained.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}
	return &Sealer{aead: gcm}, nil
}

// OpenSealer returns the sealer for a configuration directory.
//
// With a non-empty passphrase the key is derived from it and a salt stored
// in dir (created on first use). Otherwise a random master key is read from
// dir, or generated and stored with 0600 permissions.
func OpenSealer(dir, passphrase string) (*Sealer, error) {
	if passphrase != "" {
		salt, err := loadOrCreate(filepath.Join(dir, saltFile), GenerateSalt)
		if err != nil {
			return nil, fmt.Errorf("failed to load salt: %w", err)
		}
		key := DeriveKey(passphrase, salt)
		defer ZeroBytes(key)
		return NewSealer(key)
	}

	return SealerFromStore(NewFileKeyStore(filepath.Join(dir, masterKeyFile)))
}

// SealerFromStore loads the master key from store, generating and saving
// one first if the store is empty.
func SealerFromStore(store KeyStore) (*Sealer, error) {
	key, found, err := store.Load()
	if err != nil {
		return nil, err
	}
	if !found {
		key, err = GenerateMasterKey()
		if err != nil {
			return nil, err
		}
		if err := store.Save(key); err != nil {
			ZeroBytes(key)
			return nil, err
		}
	}
	defer ZeroBytes(key)
	return NewSealer(key)
}

// loadOrCreate reads path or writes a freshly generated value to it.
func loadOrCreate(path string, generate func() ([]byte, error)) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	data, err = generate()
	if err != nil {
		return nil, err
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return nil, err
	}
	return data, nil
}

// Seal encrypts plaintext and returns the ENC:-prefixed encoding.
// Empty input stays empty.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return EncryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Unseal decrypts a value produced by Seal. Values without the ENC: prefix
// are returned unchanged so plaintext entries keep working.
func (s *Sealer) Unseal(value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, EncryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(data) < NonceSize {
		return "", ErrInvalidCiphertext
	}
	plaintext, err := s.aead.Open(nil, data[:NonceSize], data[NonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// IsEncrypted reports whether value carries the ENC: prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, EncryptedPrefix)
}
