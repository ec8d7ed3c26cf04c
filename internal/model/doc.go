// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the session, the
// artifact extractor and the CLI.
//
// # Key Types
//
//   - Message: one append-only entry of the conversation log
//   - Artifact: a generated file, diagram, 3D descriptor or text
//   - Kind: artifact classification (code, diagram, model3d, text)
//   - Role: message role (user, assistant, system)
//   - View: which artifacts the presentation layer shows
//
// # Usage
//
//	msg := model.NewUserMessage("A line-following robot")
//	reply := model.NewAssistantMessage(text, artifacts)
//	code := model.FilterByKind(reply.Artifacts, model.KindCode)
package model
