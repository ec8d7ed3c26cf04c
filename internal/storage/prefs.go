// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/protoforge/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("preference store is closed")

	// ErrCredentialUnreadable means the stored credential could not be
	// unsealed (wrong passphrase or missing key file).
	ErrCredentialUnreadable = errors.New("stored API key could not be decrypted")
)

// Preference keys.
const (
	KeyProvider   = "provider"
	KeyCredential = "apiKey"
	KeyView       = "activeTab"
)

const schema = `
CREATE TABLE IF NOT EXISTS preferences (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// Sealer protects the credential at rest. *security.Sealer implements it.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Unseal(value string) (string, error)
}

// =============================================================================
// PREFERENCE STORE
// =============================================================================

// PrefStore is a small SQLite key/value table.
type PrefStore struct {
	db     *sql.DB
	path   string
	sealer Sealer
	mu     sync.RWMutex
	closed bool
}

// DefaultPath returns ~/.protoforge/prefs.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".protoforge", "prefs.db"), nil
}

// OpenPrefStore opens or creates the database at path. sealer may be nil,
// in which case the credential is stored as plain text.
func OpenPrefStore(path string, sealer Sealer) (*PrefStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// The file holds a credential; keep it private.
	_ = os.Chmod(path, 0600)

	return &PrefStore{db: db, path: path, sealer: sealer}, nil
}

// Path returns the database file path.
func (s *PrefStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *PrefStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// =============================================================================
// KEY/VALUE OPERATIONS
// =============================================================================

// Get returns the value for key and whether it was present.
func (s *PrefStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrStoreClosed
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *PrefStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	return upsert(ctx, s.db, key, value)
}

// Delete removes key. Missing keys are not an error.
func (s *PrefStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM preferences WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys in sorted order.
func (s *PrefStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, "SELECT key FROM preferences")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, rows.Err()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// =============================================================================
// PREFERENCES
// =============================================================================

// LoadPreferences reads the persisted preferences. Missing values load as
// empty; the view falls back to model.DefaultView.
//
// If the credential cannot be unsealed the other fields are still returned
// along with an error wrapping ErrCredentialUnreadable.
func (s *PrefStore) LoadPreferences(ctx context.Context) (model.Preferences, error) {
	var prefs model.Preferences

	provider, _, err := s.Get(ctx, KeyProvider)
	if err != nil {
		return prefs, err
	}
	view, _, err := s.Get(ctx, KeyView)
	if err != nil {
		return prefs, err
	}
	credential, _, err := s.Get(ctx, KeyCredential)
	if err != nil {
		return prefs, err
	}

	prefs = model.Preferences{Provider: provider, View: model.View(view)}.Normalized()

	if s.sealer != nil {
		plain, err := s.sealer.Unseal(credential)
		if err != nil {
			return prefs, fmt.Errorf("%w: %v", ErrCredentialUnreadable, err)
		}
		credential = plain
	}
	prefs.Credential = credential
	return prefs, nil
}

// SavePreferences writes the preferences in one transaction. With
// KeepStoredCredential set the stored credential is left as it is.
func (s *PrefStore) SavePreferences(ctx context.Context, prefs model.Preferences) error {
	credential := prefs.Credential
	if s.sealer != nil && credential != "" && !prefs.KeepStoredCredential {
		sealed, err := s.sealer.Seal(credential)
		if err != nil {
			return fmt.Errorf("seal API key: %w", err)
		}
		credential = sealed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	values := [][2]string{
		{KeyProvider, prefs.Provider},
		{KeyView, string(prefs.View)},
	}
	if !prefs.KeepStoredCredential {
		values = append(values, [2]string{KeyCredential, credential})
	}
	for _, kv := range values {
		if err := upsert(ctx, tx, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}
