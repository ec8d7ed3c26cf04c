// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message or turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem only appears in provider turns, never in the session log.
	RoleSystem Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "ProtoForge"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one entry of the conversation log. Messages are created once and
// never mutated afterwards; the session only ever appends them.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Artifacts extracted from this reply (assistant messages only).
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// NewMessage creates a message with a fresh ID and the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an assistant message carrying the artifacts
// extracted from its content. The slice is copied.
func NewAssistantMessage(content string, artifacts []Artifact) Message {
	msg := NewMessage(RoleAssistant, content)
	if len(artifacts) > 0 {
		msg.Artifacts = append([]Artifact(nil), artifacts...)
	}
	return msg
}

// NewErrorMessage creates the assistant message shown when a turn fails.
func NewErrorMessage(err error) Message {
	text := "Failed to get response"
	if err != nil {
		text = err.Error()
	}
	return NewMessage(RoleAssistant, ErrorPrefix+text)
}

// ErrorPrefix starts the content of every failed-turn message.
const ErrorPrefix = "Error: "

// IsUser returns true for user messages.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant returns true for assistant messages.
func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// HasArtifacts reports whether the message carries any artifacts.
func (m Message) HasArtifacts() bool {
	return len(m.Artifacts) > 0
}
