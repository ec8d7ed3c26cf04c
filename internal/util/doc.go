// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds the few helpers several protoforge packages need: rune
// and column aware truncation for titles and tables, masking of API keys for
// display, and AtomicWriteFile for exports and credential files.
package util
