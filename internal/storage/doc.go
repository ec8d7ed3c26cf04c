// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists ProtoForge preferences across restarts.
//
// Only three values are stored: the selected provider, its credential and
// the active view. Conversation history and artifacts are never written.
//
// # Key Types
//
//   - PrefStore: SQLite-backed key/value table
//   - Sealer: optional at-rest protection for the credential
//
// # Usage
//
//	store, err := storage.OpenPrefStore(path, sealer)
//	prefs, err := store.LoadPreferences(ctx)
//	err = store.SavePreferences(ctx, prefs)
//
// # Storage Location
//
// Preferences live in ~/.protoforge/prefs.db by default.
package storage
