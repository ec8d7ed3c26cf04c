// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package generator produces deterministic template output for prototypes:
// mermaid diagrams, 3D model descriptors and starter project files.
//
// Every function here is pure. The same description always yields the same
// text; only artifact IDs minted by Fallback differ between calls.
//
// # Usage
//
//	d := generator.Diagram(generator.DiagramCircuit, "LED blinker")
//	m := generator.Model3D("a small delivery robot")
//	files := generator.Scaffold("REST api for a todo app")
package generator
