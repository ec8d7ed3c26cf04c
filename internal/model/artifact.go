// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// ARTIFACT KIND
// =============================================================================

// Kind classifies an artifact.
type Kind string

const (
	KindCode    Kind = "code"
	KindDiagram Kind = "diagram"
	KindModel3D Kind = "model3d"
	KindText    Kind = "text"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindCode, KindDiagram, KindModel3D, KindText:
		return true
	}
	return false
}

// =============================================================================
// ARTIFACT
// =============================================================================

// Artifact is one named unit of generated content: a code file, a diagram,
// a 3D model descriptor or a documentation text.
//
// IDs are unique tokens minted at creation. Extracting the same reply twice
// yields equal names and contents but different IDs.
type Artifact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     Kind   `json:"type"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}

// NewArtifact creates an artifact with a fresh ID.
func NewArtifact(name string, kind Kind, content, language string) Artifact {
	return Artifact{
		ID:       uuid.New().String(),
		Name:     name,
		Kind:     kind,
		Content:  content,
		Language: language,
	}
}

// String returns a short description for listings, e.g. "file_1.py (code, python)".
func (a Artifact) String() string {
	if a.Language != "" {
		return fmt.Sprintf("%s (%s, %s)", a.Name, a.Kind, a.Language)
	}
	return fmt.Sprintf("%s (%s)", a.Name, a.Kind)
}

// FilterByKind returns the artifacts of the given kinds, in order.
func FilterByKind(artifacts []Artifact, kinds ...Kind) []Artifact {
	var out []Artifact
	for _, a := range artifacts {
		for _, k := range kinds {
			if a.Kind == k {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// FindByName returns the first artifact with the given name.
func FindByName(artifacts []Artifact, name string) (Artifact, bool) {
	for _, a := range artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}
