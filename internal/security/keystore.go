// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package security

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/protoforge/internal/util"
)

// =============================================================================
// MASTER KEY STORAGE
// =============================================================================

// KeyStore holds the master key that seals the stored API key.
type KeyStore interface {
	// Load returns the key, or found=false when none has been saved yet.
	Load() (key []byte, found bool, err error)
	// Save replaces the stored key.
	Save(key []byte) error
}

// FileKeyStore keeps the master key hex-encoded in a file only its owner
// can read. The parent directory is created 0700 on first save.
type FileKeyStore struct {
	path string
}

// NewFileKeyStore returns a store backed by path.
func NewFileKeyStore(path string) *FileKeyStore {
	return &FileKeyStore{path: path}
}

// Load reads and decodes the key file.
func (f *FileKeyStore) Load() ([]byte, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read master key: %w", err)
	}
	defer ZeroBytes(data)

	key, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil || len(key) != KeySize {
		ZeroBytes(key)
		return nil, true, fmt.Errorf("master key %s is corrupt; delete it and set your API key again", f.path)
	}
	return key, true, nil
}

// Save writes the key atomically with 0600 permissions.
func (f *FileKeyStore) Save(key []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("master key must be %d bytes, got %d", KeySize, len(key))
	}
	encoded := []byte(hex.EncodeToString(key) + "\n")
	defer ZeroBytes(encoded)
	if err := util.AtomicWriteFile(f.path, encoded, 0600); err != nil {
		return fmt.Errorf("failed to write master key: %w", err)
	}
	return nil
}
