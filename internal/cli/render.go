// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Terminal rendering of replies and artifacts.
//
// Replies are rendered as markdown with glamour. Artifact contents are
// highlighted with chroma and framed in lipgloss panels.

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeranaias/protoforge/internal/config"
	"github.com/jeranaias/protoforge/internal/model"
	"github.com/jeranaias/protoforge/internal/util"
)

// maxPanelLines caps artifact panels; /save writes the full content.
const maxPanelLines = 200

var titleCaser = cases.Title(language.English)

// Renderer writes messages and artifacts to a terminal or a pipe.
type Renderer struct {
	mu  sync.Mutex
	ui  config.UIConfig
	out io.Writer
	md  *glamour.TermRenderer
}

// NewRenderer creates a renderer for ui settings.
func NewRenderer(ui config.UIConfig, out io.Writer) *Renderer {
	r := &Renderer{out: out}
	r.Configure(ui)
	return r
}

// Configure applies new UI settings. The markdown renderer is rebuilt
// lazily on next use.
func (r *Renderer) Configure(ui config.UIConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ui = ui
	r.md = nil
}

func (r *Renderer) markdownRenderer() *glamour.TermRenderer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.md != nil {
		return r.md
	}

	wrap := r.ui.WordWrap
	if wrap <= 0 {
		wrap = GetTerminalWidth() - 4
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wrap)}
	switch {
	case !ColorsEnabled():
		opts = append(opts, glamour.WithStandardStyle("notty"))
	case r.ui.Theme == "" || r.ui.Theme == "auto":
		opts = append(opts, glamour.WithAutoStyle())
	default:
		opts = append(opts, glamour.WithStandardStyle(r.ui.Theme))
	}

	md, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil
	}
	r.md = md
	return md
}

// Markdown renders text as terminal markdown, falling back to wrapped
// plain text if the renderer cannot be built.
func (r *Renderer) Markdown(text string) string {
	md := r.markdownRenderer()
	if md == nil {
		return WrapText(text, r.ui.WordWrap)
	}
	out, err := md.Render(text)
	if err != nil {
		return WrapText(text, r.ui.WordWrap)
	}
	return strings.TrimRight(out, "\n") + "\n"
}

// Highlight applies syntax highlighting for language. Without colors the
// code is returned unchanged.
func (r *Renderer) Highlight(code, lang string) string {
	if !ColorsEnabled() {
		return code
	}

	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	r.mu.Lock()
	styleName := r.ui.HighlightStyle
	r.mu.Unlock()
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get(formatterFor(GetColorProfile()))
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// formatterFor picks the chroma terminal formatter for a color profile.
func formatterFor(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal16"
	default:
		return "noop"
	}
}

// languageFor maps an artifact to a chroma lexer name.
func languageFor(a model.Artifact) string {
	switch a.Kind {
	case model.KindDiagram:
		return "mermaid"
	case model.KindModel3D:
		return "json"
	}
	if a.Language != "" {
		return a.Language
	}
	if i := strings.LastIndexByte(a.Name, '.'); i >= 0 {
		return a.Name[i+1:]
	}
	return ""
}

// =============================================================================
// MESSAGES
// =============================================================================

// Message writes one conversation entry.
func (r *Renderer) Message(m model.Message) {
	r.mu.Lock()
	showTime := r.ui.ShowTimestamps
	r.mu.Unlock()

	label := UserLabelStyle.Render(m.Role.DisplayName())
	if m.IsAssistant() {
		label = AssistantLabelStyle.Render(m.Role.DisplayName())
	}
	if showTime && !m.Timestamp.IsZero() {
		label = DimStyle.Render(m.Timestamp.Format("15:04")) + " " + label
	}
	fmt.Fprintln(r.out, label)

	switch {
	case m.IsUser():
		fmt.Fprintln(r.out, WrapText(m.Content, 0))
	case strings.HasPrefix(m.Content, model.ErrorPrefix):
		fmt.Fprintln(r.out, ErrorStyle.Render(m.Content))
	default:
		fmt.Fprint(r.out, r.Markdown(m.Content))
	}
	if n := len(m.Artifacts); n > 0 {
		fmt.Fprintln(r.out, DimStyle.Render(fmt.Sprintf("%d file(s) generated. Use /files to list them.", n)))
	}
}

// =============================================================================
// ARTIFACTS
// =============================================================================

// ViewBar renders the view selector with active highlighted.
func (r *Renderer) ViewBar(active model.View) string {
	parts := make([]string, 0, len(model.Views))
	for _, v := range model.Views {
		name := viewTitle(v)
		if v == active {
			parts = append(parts, ActiveTabStyle.Render(name))
		} else {
			parts = append(parts, TabStyle.Render(name))
		}
	}
	return strings.Join(parts, " ")
}

// viewTitle is the display name of a view.
func viewTitle(v model.View) string {
	if v == model.View3D {
		return "3D Model"
	}
	return titleCaser.String(string(v))
}

// ArtifactList writes a numbered listing; selected is marked with '*'.
func (r *Renderer) ArtifactList(artifacts []model.Artifact, selected string) {
	if len(artifacts) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("No files yet. Describe a product idea to generate some."))
		return
	}

	width := 0
	for _, a := range artifacts {
		if w := util.StringWidth(a.Name); w > width {
			width = w
		}
	}
	if width > 40 {
		width = 40
	}

	for i, a := range artifacts {
		marker := " "
		if a.Name == selected {
			marker = HighlightStyle.Render("*")
		}
		name := util.PadWidth(util.TruncateWidth(a.Name, width), width)
		detail := string(a.Kind)
		if a.Language != "" {
			detail += ", " + a.Language
		}
		fmt.Fprintf(r.out, "%s %2d. %s  %s  %s\n",
			marker, i+1, ValueStyle.Render(name),
			DimStyle.Render(detail),
			DimStyle.Render(fmt.Sprintf("%d lines", lineCount(a.Content))))
	}
}

// Artifact writes one artifact in a titled panel.
func (r *Renderer) Artifact(a model.Artifact) {
	content := strings.TrimRight(a.Content, "\n")
	lines := strings.Split(content, "\n")
	truncated := 0
	if len(lines) > maxPanelLines {
		truncated = len(lines) - maxPanelLines
		content = strings.Join(lines[:maxPanelLines], "\n")
	}

	body := r.Highlight(content, languageFor(a))
	if a.Kind == model.KindText {
		body = strings.TrimRight(r.Markdown(content), "\n")
	}

	fmt.Fprintln(r.out, PanelTitleStyle.Render(a.Name)+" "+DimStyle.Render("("+string(a.Kind)+")"))
	if ColorsEnabled() {
		fmt.Fprintln(r.out, PanelStyle.Render(body))
	} else {
		fmt.Fprintln(r.out, body)
	}
	if truncated > 0 {
		fmt.Fprintln(r.out, DimStyle.Render(fmt.Sprintf("... %d more lines (use /save to write the full file)", truncated)))
	}
	if a.Kind == model.KindDiagram {
		fmt.Fprintln(r.out, DimStyle.Render("Paste into https://mermaid.live to view the diagram."))
	}
}

// ViewContents writes everything the view shows: artifacts of its kinds,
// plus the last reply for the instructions view.
func (r *Renderer) ViewContents(v model.View, visible []model.Artifact, lastReply string) {
	fmt.Fprintln(r.out, r.ViewBar(v))
	fmt.Fprintln(r.out)
	if v == model.ViewInstructions && lastReply != "" && !strings.HasPrefix(lastReply, model.ErrorPrefix) {
		fmt.Fprint(r.out, r.Markdown(lastReply))
	}
	if len(visible) == 0 {
		if v != model.ViewInstructions || lastReply == "" {
			fmt.Fprintln(r.out, DimStyle.Render(emptyViewHint(v)))
		}
		return
	}
	for _, a := range visible {
		r.Artifact(a)
	}
}

func emptyViewHint(v model.View) string {
	switch v {
	case model.View3D:
		return "No 3D model yet. Describe a physical product or device."
	case model.ViewDiagram:
		return "No diagrams yet. Ask for a circuit, architecture or flow diagram."
	case model.ViewCode:
		return "No code yet. Describe something to build."
	default:
		return "No instructions yet. Type /guide for help getting started."
	}
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(strings.TrimRight(s, "\n"), "\n") + 1
}
