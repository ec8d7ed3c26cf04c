// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package artifact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jeranaias/protoforge/internal/generator"
	"github.com/jeranaias/protoforge/internal/model"
	"github.com/jeranaias/protoforge/internal/util"
)

// MinCodeLength is the trimmed body length a fenced block must exceed to
// become a code artifact. Diagram blocks have no minimum.
const MinCodeLength = 50

var (
	// fencePattern matches any fenced block with an optional language tag.
	fencePattern = regexp.MustCompile("```(\\w+)?\\n([\\s\\S]*?)```")

	// mermaidPattern matches fenced blocks tagged as mermaid.
	mermaidPattern = regexp.MustCompile("```mermaid\\n([\\s\\S]*?)```")
)

// extensions maps lowercase language tags to file extensions.
var extensions = map[string]string{
	"javascript": "js",
	"js":         "js",
	"typescript": "ts",
	"ts":         "ts",
	"python":     "py",
	"py":         "py",
	"html":       "html",
	"css":        "css",
	"json":       "json",
	"markdown":   "md",
	"md":         "md",
	"sql":        "sql",
	"bash":       "sh",
	"sh":         "sh",
	"shell":      "sh",
}

// ExtensionFor returns the file extension for a language tag, or "txt" for
// unknown tags.
func ExtensionFor(language string) string {
	if ext, ok := extensions[strings.ToLower(language)]; ok {
		return ext
	}
	return "txt"
}

// =============================================================================
// EXTRACTION
// =============================================================================

// Extract converts one assistant reply into artifacts, in order:
//
//  1. every fenced block whose trimmed body exceeds MinCodeLength becomes a
//     code artifact named file_N.<ext>
//  2. every mermaid block becomes a diagram artifact named diagram_N.mmd
//  3. if anything was found and reply or prompt mentions hardware, a
//     3d_model.json descriptor is appended; the prompt picks its category
//     and the reply only fills in when the prompt names none
//
// A mermaid block long enough to pass step 1 is reported twice, once as
// code and once as a diagram. N counts all artifacts produced so far.
func Extract(reply, prompt string) []model.Artifact {
	var out []model.Artifact

	for _, m := range fencePattern.FindAllStringSubmatch(reply, -1) {
		language := m[1]
		if language == "" {
			language = "text"
		}
		body := strings.TrimSpace(m[2])
		if util.RuneLen(body) <= MinCodeLength {
			continue
		}
		name := fmt.Sprintf("file_%d.%s", len(out)+1, ExtensionFor(language))
		out = append(out, model.NewArtifact(name, model.KindCode, body, language))
	}

	for _, m := range mermaidPattern.FindAllStringSubmatch(reply, -1) {
		name := fmt.Sprintf("diagram_%d.mmd", len(out)+1)
		out = append(out, model.NewArtifact(name, model.KindDiagram, strings.TrimSpace(m[1]), "mermaid"))
	}

	if len(out) > 0 && generator.IsHardware(reply, prompt) {
		out = append(out, generator.Model3DFor(prompt, reply).Artifact())
	}

	return out
}
