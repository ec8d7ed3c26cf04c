// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/jeranaias/protoforge/internal/model"
)

// jsonFormatVersion is bumped when the document layout changes.
const jsonFormatVersion = 1

// JSONExporter writes a bundle as one indented JSON document that other
// tools can load back: session metadata, a per-kind artifact count, every
// message and every artifact.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter returns a JSON exporter. nil opts means DefaultOptions.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonMessage struct {
	Role      model.Role `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Artifacts []string   `json:"artifacts,omitempty"`
}

type jsonDocument struct {
	Format    string           `json:"format"`
	Version   int              `json:"version"`
	Title     string           `json:"title"`
	Provider  string           `json:"provider,omitempty"`
	Model     string           `json:"model,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Counts    map[string]int   `json:"counts"`
	Messages  []jsonMessage    `json:"messages"`
	Artifacts []model.Artifact `json:"artifacts"`
}

// Export renders b. Message timestamps are left out unless
// IncludeTimestamps is set; artifacts are referenced from their message by
// name and listed in full once.
func (e *JSONExporter) Export(b *Bundle) ([]byte, error) {
	if b == nil {
		return nil, errors.New("bundle is nil")
	}

	doc := jsonDocument{
		Format:    "protoforge-transcript",
		Version:   jsonFormatVersion,
		Title:     b.Title,
		Provider:  b.Provider,
		Model:     b.Model,
		CreatedAt: b.CreatedAt,
		Counts:    map[string]int{},
		Messages:  make([]jsonMessage, 0, len(b.Messages)),
		Artifacts: b.Artifacts,
	}
	if doc.Artifacts == nil {
		doc.Artifacts = []model.Artifact{}
	}
	for _, a := range doc.Artifacts {
		doc.Counts[a.Kind.String()]++
	}

	for _, m := range b.Messages {
		jm := jsonMessage{Role: m.Role, Content: m.Content}
		if e.options.IncludeTimestamps && !m.Timestamp.IsZero() {
			ts := m.Timestamp
			jm.Timestamp = &ts
		}
		for _, a := range m.Artifacts {
			jm.Artifacts = append(jm.Artifacts, a.Name)
		}
		doc.Messages = append(doc.Messages, jm)
	}

	return json.MarshalIndent(doc, "", "  ")
}

func (e *JSONExporter) FileExtension() string { return ".json" }

// ExporterFor maps a format name ("md", "markdown" or "json") to its
// exporter. An empty name means Markdown.
func ExporterFor(format string, opts *Options) (Exporter, error) {
	switch format {
	case "", "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	}
	return nil, &UnsupportedFormatError{Format: format}
}

// UnsupportedFormatError names an export format no exporter handles.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return "unsupported export format: " + e.Format + " (want md or json)"
}
