// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the single mutable aggregate of a ProtoForge run:
// provider selection, credential, message log, current artifacts, selected
// artifact, active view and the busy flag.
//
// # Key Types
//
//   - State: immutable snapshot; transforms return a new State
//   - Controller: serializes turns and persists preferences
//
// # Usage
//
//	ctrl := session.NewController(prefs, session.Options{Factory: factory, Store: store})
//	reply, err := ctrl.Send(ctx, "A plant watering robot")
//	for _, a := range ctrl.Snapshot().Artifacts {
//	    fmt.Println(a.Name)
//	}
//
// # Turn Semantics
//
// A turn appends the user message and sets busy before the provider call.
// Success appends an assistant message and replaces the artifact set;
// failure appends an "Error: ..." message and leaves the artifacts alone.
// A second Send while busy fails with ErrBusy; nothing is queued.
package session
