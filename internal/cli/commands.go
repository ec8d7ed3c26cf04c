// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - Provider selection, credentials, status, generators and
// version.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/jeranaias/protoforge/internal/config"
	"github.com/jeranaias/protoforge/internal/export"
	"github.com/jeranaias/protoforge/internal/generator"
	"github.com/jeranaias/protoforge/internal/model"
	"github.com/jeranaias/protoforge/internal/provider"
	"github.com/jeranaias/protoforge/internal/util"
)

// =============================================================================
// PROVIDERS
// =============================================================================

// providerData lists every registered provider, marking selected.
func providerData(selected string, cfg *config.Config) []ProviderData {
	all := provider.All()
	out := make([]ProviderData, 0, len(all))
	for _, d := range all {
		def := d.DefaultModel()
		if cfg != nil {
			if m := cfg.ModelFor(d.ID); m != "" {
				def = m
			}
		}
		out = append(out, ProviderData{
			ID:             d.ID,
			Name:           d.Name,
			Selected:       d.ID == selected,
			NeedsKey:       d.RequiresCredential(),
			CredentialHint: d.CredentialHint,
			DefaultModel:   def,
			Models:         d.Models,
			HelpURL:        d.HelpURL,
		})
	}
	return out
}

func writeProviders(w io.Writer, data []ProviderData) {
	fmt.Fprintln(w, TitleStyle.Render("AI Providers"))
	for _, p := range data {
		marker := "  "
		if p.Selected {
			marker = HighlightStyle.Render("* ")
		}
		key := DimStyle.Render("key " + p.CredentialHint)
		if !p.NeedsKey {
			key = DimStyle.Render("no key needed")
		}
		fmt.Fprintf(w, "%s%s %s  %s\n", marker,
			ValueStyle.Render(util.PadWidth(p.ID, 10)),
			util.PadWidth(p.Name, 10), key)
		fmt.Fprintf(w, "    %s %s\n", DimStyle.Render("models:"), strings.Join(p.Models, ", "))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, DimStyle.Render("Select one with 'protoforge use <id>'."))
}

// HandleProviders lists the supported providers.
func HandleProviders(w io.Writer, args Args) error {
	cfg := config.Global()
	selected := args.Provider
	if selected == "" {
		selected = cfg.Provider.Default
	}
	data := providerData(selected, cfg)
	if args.JSON {
		return NewJSONResponse("providers", data).Write(w)
	}
	writeProviders(w, data)
	return nil
}

// printProviders is /provider with no argument.
func (a *App) printProviders() error {
	data := providerData(a.ctrl.Snapshot().ProviderID, a.config())
	writeProviders(a.out, data)
	return nil
}

// Use selects and persists a provider.
func (a *App) Use(id string) error {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		picked, err := a.pickProvider()
		if err != nil {
			return err
		}
		id = picked
	}
	if err := a.ctrl.SetProvider(context.Background(), id); err != nil {
		if provider.IsConfiguration(err) {
			reason := "want one of " + strings.Join(provider.IDs(), ", ")
			if s := Suggest(id, provider.IDs()); s != "" {
				reason = fmt.Sprintf("did you mean '%s'?", s)
			}
			return NewValidationError("provider", id, reason)
		}
		return err
	}

	desc, _ := a.ctrl.Provider()
	if a.args.JSON {
		return NewJSONResponse("use", providerData(desc.ID, a.config())).Write(a.out)
	}
	fmt.Fprintf(a.out, "%s Using %s (%s)\n", SuccessStyle.Render("[OK]"), desc.Name, a.currentModel())
	if err := provider.ValidateCredential(desc, a.ctrl.Snapshot().Credential); err != nil {
		fmt.Fprintf(a.out, "%s\n", DimStyle.Render("Set your key with 'protoforge key'. Get one at "+desc.HelpURL))
	}
	return nil
}

// pickProvider asks for a provider on a terminal.
func (a *App) pickProvider() (string, error) {
	usage := "protoforge use anthropic  (ids: " + strings.Join(provider.IDs(), ", ") + ")"
	if !IsTTY() || a.args.JSON {
		return "", ErrMissingArgument("provider", usage)
	}
	all := provider.All()
	options := make([]string, len(all))
	for i, d := range all {
		options[i] = fmt.Sprintf("%s (%s)", d.Name, d.ID)
	}
	choice := PromptChoice(a.in, a.errOut, "Select an AI provider:", options)
	if choice < 0 {
		return "", ErrMissingArgument("provider", usage)
	}
	return all[choice].ID, nil
}

// =============================================================================
// CREDENTIALS
// =============================================================================

// SetKey reads the API key (hidden prompt, or one line with --stdin) and
// stores it for the current provider.
func (a *App) SetKey() error {
	desc, ok := a.ctrl.Provider()
	if !ok {
		return provider.ErrNoProvider
	}

	key := strings.TrimSpace(a.args.Query)
	if key != "" {
		a.warn("keys passed as arguments end up in shell history; prefer the prompt or --stdin")
	}
	if key == "" {
		var err error
		if a.args.BoolOption("stdin") || !IsTTY() {
			key, err = ReadLine(a.in)
		} else {
			key, err = ReadSecret(a.errOut, fmt.Sprintf("%s API key (%s): ", desc.Name, desc.CredentialHint))
		}
		if err != nil {
			return err
		}
	}
	return a.storeKey(context.Background(), key)
}

// storeKey validates and persists key.
func (a *App) storeKey(ctx context.Context, key string) error {
	if err := a.ctrl.SetCredential(ctx, key); err != nil {
		return err
	}
	desc, _ := a.ctrl.Provider()
	fmt.Fprintf(a.out, "%s API key saved for %s (%s)\n",
		SuccessStyle.Render("[OK]"), desc.Name, util.MaskSecret(a.ctrl.Snapshot().Credential))
	return nil
}

// =============================================================================
// STATUS
// =============================================================================

func (a *App) statusData() StatusData {
	cfg := a.config()
	st := a.ctrl.Snapshot()
	data := StatusData{
		Provider:  st.ProviderID,
		KeySet:    st.Credential != "",
		View:      string(st.View),
		PrefsPath: a.store.Path(),
		Sealed:    cfg.Storage.SealCredentials,
		Fallback:  cfg.Generation.TemplateFallback,
		ExportDir: cfg.Storage.ExportDir,
	}
	if st.Credential != "" {
		data.KeyMasked = util.MaskSecret(st.Credential)
		data.KeySource = "stored"
		if st.CredentialFromEnv {
			data.KeySource = "environment"
		}
	}
	if path, err := config.ActivePath(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			data.ConfigPath = path
		}
	}

	desc, ok := a.ctrl.Provider()
	switch {
	case !ok && st.ProviderID == "":
		data.Problem = provider.ErrNoProvider.Error()
	case !ok:
		data.Problem = fmt.Sprintf("unknown provider %q", st.ProviderID)
	default:
		data.Model = a.currentModel()
		if err := provider.ValidateCredential(desc, st.Credential); err != nil {
			data.Problem = err.Error()
		}
	}
	data.Ready = data.Problem == ""
	return data
}

// Status shows whether the session is ready to chat.
func (a *App) Status() error {
	data := a.statusData()
	if a.args.JSON {
		return NewJSONResponse("status", data).Write(a.out)
	}
	a.writeStatus(data)
	return nil
}

func (a *App) printStatus() error {
	a.writeStatus(a.statusData())
	return nil
}

func (a *App) writeStatus(d StatusData) {
	w := a.out
	fmt.Fprintln(w, TitleStyle.Render("ProtoForge Status"))

	ready := "ok"
	if !d.Ready {
		ready = "missing"
	}
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Ready:"), RenderStatus(ready))
	if d.Problem != "" {
		fmt.Fprintf(w, "%s %s\n", RenderLabel(""), WarningStyle.Render(d.Problem))
	}

	providerName := d.Provider
	if providerName == "" {
		providerName = "(none)"
	}
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Provider:"), ValueStyle.Render(providerName))
	if d.Model != "" {
		fmt.Fprintf(w, "%s %s\n", RenderLabel("Model:"), ValueStyle.Render(d.Model))
	}
	key := "(not set)"
	if d.KeySet {
		key = d.KeyMasked
		if d.KeySource == "environment" {
			key += " (from environment, not saved)"
		}
	}
	fmt.Fprintf(w, "%s %s\n", RenderLabel("API key:"), ValueStyle.Render(key))
	fmt.Fprintf(w, "%s %s\n", RenderLabel("View:"), ValueStyle.Render(viewTitle(model.View(d.View))))

	fmt.Fprintln(w, SectionStyle.Render("Storage"))
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Preferences:"), DimStyle.Render(d.PrefsPath))
	fmt.Fprintf(w, "%s %t\n", RenderLabel("Key encrypted:"), d.Sealed)
	fmt.Fprintf(w, "%s %s\n", RenderLabel("Export dir:"), DimStyle.Render(d.ExportDir))
	if d.ConfigPath != "" {
		fmt.Fprintf(w, "%s %s\n", RenderLabel("Config:"), DimStyle.Render(d.ConfigPath))
	}
	fmt.Fprintf(w, "%s %t\n", RenderLabel("Templates:"), d.Fallback)
}

// =============================================================================
// GENERATE
// =============================================================================

// GenerateArtifacts runs a template generator without a provider.
// kind is scaffold, diagram, model3d or all; diagramKind may force a
// diagram template.
func GenerateArtifacts(kind, description, diagramKind string) ([]model.Artifact, error) {
	switch kind {
	case "scaffold", "project", "code":
		files := generator.Scaffold(description)
		out := make([]model.Artifact, 0, len(files))
		for _, f := range files {
			out = append(out, f.Artifact())
		}
		return out, nil

	case "diagram", "mermaid":
		dk := generator.DiagramKindFor(description)
		if diagramKind != "" {
			dk = generator.DiagramKind(strings.ToLower(diagramKind))
			if !validDiagramKind(dk) {
				return nil, NewValidationError("kind", diagramKind, "want one of "+diagramKindNames())
			}
		}
		d := generator.Diagram(dk, description)
		return []model.Artifact{model.NewArtifact("diagram.mmd", model.KindDiagram, d.Mermaid(), "mermaid")}, nil

	case "model3d", "3d", "model":
		return []model.Artifact{generator.Model3DArtifact(description)}, nil

	case "all", "fallback":
		return generator.Fallback(description), nil

	default:
		return nil, &ValidationError{
			Field:   "generator",
			Value:   kind,
			Reason:  "want scaffold, diagram, model3d or all",
			Example: `protoforge generate scaffold "react todo app"`,
		}
	}
}

func validDiagramKind(k generator.DiagramKind) bool {
	for _, known := range generator.DiagramKinds {
		if k == known {
			return true
		}
	}
	return false
}

func diagramKindNames() string {
	names := make([]string, len(generator.DiagramKinds))
	for i, k := range generator.DiagramKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// HandleGenerate prints (or with --save/--zip writes) template output.
func HandleGenerate(w io.Writer, args Args) error {
	if args.Subcommand == "" {
		return ErrMissingArgument("generator", `protoforge generate scaffold|diagram|model3d|all "idea"`)
	}
	description := strings.TrimSpace(args.Query)
	if description == "" {
		return ErrMissingArgument("idea", fmt.Sprintf(`protoforge generate %s "smart plant watering gadget"`, args.Subcommand))
	}

	artifacts, err := GenerateArtifacts(args.Subcommand, description, args.Option("kind"))
	if err != nil {
		return err
	}

	cfg := config.Global()
	opts := export.DefaultOptions()
	opts.OutputDir = cfg.Storage.ExportDir
	if dir := args.Option("dir"); dir != "" {
		opts.OutputDir = dir
	}

	var written []string
	switch {
	case args.BoolOption("zip"):
		path, err := export.WriteZip(artifacts, opts)
		if err != nil {
			return err
		}
		written = []string{path}
	case args.BoolOption("save"):
		written, err = export.WriteArtifacts(artifacts, opts)
		if err != nil {
			return err
		}
	}

	if args.JSON {
		return NewJSONResponse("generate", GenerateData{
			Kind:      args.Subcommand,
			Artifacts: artifacts,
			Written:   written,
		}).Write(w)
	}

	r := NewRenderer(cfg.UI, w)
	for _, a := range artifacts {
		r.Artifact(a)
		fmt.Fprintln(w)
	}
	for _, p := range written {
		fmt.Fprintf(os.Stderr, "%s %s\n", SuccessStyle.Render("Saved"), p)
	}
	return nil
}

// =============================================================================
// GUIDE / VERSION
// =============================================================================

// showGuide is /guide [topic].
func (a *App) showGuide(topic string) error {
	md, err := GuideMarkdown(topic)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, a.render.Markdown(md))
	return nil
}

// HandleVersion prints version information.
func HandleVersion(w io.Writer, args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Write(w)
	}
	PrintVersion(w)
	return nil
}
