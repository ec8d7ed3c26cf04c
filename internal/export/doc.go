// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes generated artifacts and session transcripts to disk.
//
// # Artifacts
//
// WriteArtifact saves one file, WriteArtifacts saves the whole set and
// WriteZip bundles it into protoforge_project.zip. Names are sanitized and
// duplicates within one set get a numeric suffix (README.md, README_2.md).
//
// # Transcripts
//
// A Bundle (messages plus current artifacts) can be rendered by any
// Exporter; Markdown and JSON are provided:
//
//	path, err := export.ExportToFile(bundle, export.NewMarkdownExporter(nil), nil)
package export
