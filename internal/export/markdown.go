// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/protoforge/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders a session transcript followed by its artifacts.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a bundle to Markdown.
func (e *MarkdownExporter) Export(b *Bundle) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("bundle is nil")
	}
	if len(b.Messages) == 0 && len(b.Artifacts) == 0 {
		return nil, fmt.Errorf("session is empty")
	}

	var sb strings.Builder

	title := b.Title
	if title == "" {
		title = "ProtoForge Session"
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(title)))

	if b.Provider != "" {
		sb.WriteString(fmt.Sprintf("- **Provider**: %s\n", b.Provider))
	}
	if b.Model != "" {
		sb.WriteString(fmt.Sprintf("- **Model**: %s\n", b.Model))
	}
	if !b.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("- **Created**: %s\n", formatTimestamp(b.CreatedAt)))
	}
	sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", len(b.Messages)))
	sb.WriteString(fmt.Sprintf("- **Files**: %d\n\n", len(b.Artifacts)))

	if len(b.Messages) > 0 {
		sb.WriteString("## Conversation\n\n")
		for i, msg := range b.Messages {
			if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
				sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
					msg.Role.DisplayName(), formatShortTimestamp(msg.Timestamp)))
			} else {
				sb.WriteString(fmt.Sprintf("### %s\n\n", msg.Role.DisplayName()))
			}
			sb.WriteString(strings.TrimSpace(msg.Content))
			sb.WriteString("\n\n")

			if msg.HasArtifacts() {
				names := make([]string, len(msg.Artifacts))
				for j, a := range msg.Artifacts {
					names[j] = "`" + a.Name + "`"
				}
				sb.WriteString(fmt.Sprintf("<sub>Generated: %s</sub>\n\n", strings.Join(names, ", ")))
			}

			if i < len(b.Messages)-1 {
				sb.WriteString("---\n\n")
			}
		}
	}

	if len(b.Artifacts) > 0 {
		sb.WriteString("## Files\n\n")
		names := UniqueNames(b.Artifacts)
		for i, a := range b.Artifacts {
			sb.WriteString(fmt.Sprintf("### %s\n\n", names[i]))
			sb.WriteString(fence(a))
			sb.WriteString("\n\n")
		}
	}

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from ProtoForge on %s*\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// fence wraps artifact content in a code fence long enough not to collide
// with backticks inside it.
func fence(a model.Artifact) string {
	tag := a.Language
	switch a.Kind {
	case model.KindDiagram:
		if tag == "" {
			tag = "mermaid"
		}
	case model.KindModel3D:
		tag = "json"
	case model.KindText:
		tag = "markdown"
	}

	marker := "```"
	for strings.Contains(a.Content, marker) {
		marker += "`"
	}
	return marker + tag + "\n" + strings.TrimRight(a.Content, "\n") + "\n" + marker
}

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}
