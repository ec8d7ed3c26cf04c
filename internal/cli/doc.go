// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and execution for protoforge.
//
// # Usage
//
//	cmd, args := cli.Parse()
//	os.Exit(cli.Run(cmd, args))
//
// # Commands
//
//   - chat: interactive REPL with slash commands (default)
//   - ask: one turn, printing the reply and the extracted files
//   - export: one turn, then write the files (or a zip) to disk
//   - providers, use, key: provider selection and credentials
//   - generate: offline template generators
//   - guide, status, config, version, help
//
// ask, providers, status, config and version support --json.
package cli
