// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generator

import (
	"github.com/jeranaias/protoforge/internal/model"
)

// Model3DFileName is the artifact name used for 3D descriptors.
const Model3DFileName = "3d_model.json"

// Artifact wraps the descriptor JSON as the 3d_model.json artifact.
func (m ModelDescriptor) Artifact() model.Artifact {
	return model.NewArtifact(Model3DFileName, model.KindModel3D, m.JSON(), "json")
}

// Model3DArtifact renders the descriptor for description as an artifact.
func Model3DArtifact(description string) model.Artifact {
	return Model3D(description).Artifact()
}

// Fallback builds template artifacts for a prompt whose reply carried no
// fenced blocks: the scaffold files, one mermaid diagram and, for hardware
// prompts, a 3D descriptor.
func Fallback(prompt string) []model.Artifact {
	files := Scaffold(prompt)
	out := make([]model.Artifact, 0, len(files)+2)
	for _, f := range files {
		out = append(out, f.Artifact())
	}

	d := Diagram(DiagramKindFor(prompt), prompt)
	out = append(out, model.NewArtifact("diagram.mmd", model.KindDiagram, d.Mermaid(), "mermaid"))

	if IsHardware(prompt) {
		out = append(out, Model3DArtifact(prompt))
	}
	return out
}
