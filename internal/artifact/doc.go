// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package artifact turns a raw assistant reply into typed artifacts.
//
// Extraction is a pure function of the reply and the prompt that produced
// it. Fenced code blocks become code files, mermaid blocks become diagrams,
// and hardware-flavoured conversations gain a 3D model descriptor.
// Malformed or missing fences never cause an error; they simply yield fewer
// artifacts.
package artifact
