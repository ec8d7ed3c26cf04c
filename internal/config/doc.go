// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads ProtoForge settings: provider defaults, per-provider
// models and endpoints, request timeout, UI theme and export options.
//
// # Where values come from
//
// Later sources win:
//
//  1. built-in defaults
//  2. ~/.protoforge/config.toml, or config.json when there is no TOML file
//  3. .env files (working directory, then ~/.protoforge/.env)
//  4. PROTOFORGE_* environment variables
//
// Validate rejects unknown providers, themes and malformed URLs. Get and Set
// address fields by dotted key ("ui.theme", "provider.models.openai") for the
// config command.
//
//	cfg, err := config.Load()
//	model := cfg.ModelFor("openai")
//
// Watch re-reads the file when it changes on disk.
package config
