// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot turns: ask and export.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/protoforge/internal/export"
	"github.com/jeranaias/protoforge/internal/model"
	"github.com/jeranaias/protoforge/internal/util"
)

// Ask runs one turn and prints the reply and the extracted files.
//
// Options: --view V lists only that view's files, --show NAME prints one
// file, --save writes all files, --zip writes the archive, --dir sets the
// output folder.
func (a *App) Ask(query string) error {
	query = strings.TrimSpace(norm.NFC.String(query))
	if query == "" {
		return ErrMissingArgument("idea", `protoforge ask "Arduino weather station with LCD display"`)
	}

	var viewFilter model.View
	if v := a.args.Option("view"); v != "" {
		parsed, err := model.ParseView(v)
		if err != nil {
			return NewValidationError("view", v, err.Error())
		}
		viewFilter = parsed
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.info("Thinking...")
	start := time.Now()
	msg, err := a.ctrl.Send(ctx, query)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	a.logger.Printf("turn finished in %s", elapsed.Round(time.Millisecond))

	artifacts := msg.Artifacts
	if viewFilter != "" {
		artifacts = model.FilterByKind(artifacts, viewFilter.Kinds()...)
	}

	var written []string
	switch {
	case a.args.BoolOption("zip"):
		path, err := a.writeZip(msg.Artifacts, a.args.Option("dir"))
		if err != nil {
			return err
		}
		written = append(written, path)
	case a.args.BoolOption("save"):
		paths, err := a.writeFiles(msg.Artifacts, a.args.Option("dir"))
		if err != nil {
			return err
		}
		written = paths
	}

	if a.args.JSON {
		desc, _ := a.ctrl.Provider()
		return NewJSONResponse("ask", AskData{
			Provider:   desc.ID,
			Model:      a.currentModel(),
			Reply:      msg.Content,
			Artifacts:  artifacts,
			Written:    written,
			DurationMs: elapsed.Milliseconds(),
		}).Write(a.out)
	}

	if a.args.Quiet {
		fmt.Fprintln(a.out, msg.Content)
	} else {
		a.render.Message(msg)
	}

	if name := a.args.Option("show"); name != "" {
		art, err := a.selectArtifact(name)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out)
		a.render.Artifact(art)
	} else if len(artifacts) > 0 && !a.args.Quiet {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, SectionStyle.Render("Files"))
		a.render.ArtifactList(artifacts, "")
	}

	a.reportWritten(written)
	return nil
}

// Export runs one turn and writes its files. --zip writes a single
// archive; --format md|json also writes the transcript.
func (a *App) Export(query string) error {
	if a.args.Options == nil {
		a.args.Options = map[string]string{}
	}
	if !a.args.BoolOption("zip") {
		a.args.Options["save"] = "true"
	}
	if err := a.Ask(query); err != nil {
		return err
	}
	if format := a.args.Option("format"); format != "" {
		return a.exportTranscript(format, a.args.Option("dir"), a.args.BoolOption("open"))
	}
	return nil
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// exportOptions builds export options for dir, defaulting to
// storage.export_dir.
func (a *App) exportOptions(dir string) *export.Options {
	opts := export.DefaultOptions()
	cfg := a.config()
	if dir == "" {
		dir = cfg.Storage.ExportDir
	}
	opts.OutputDir = dir
	opts.IncludeTimestamps = cfg.UI.ShowTimestamps
	return opts
}

func (a *App) writeFiles(artifacts []model.Artifact, dir string) ([]string, error) {
	return export.WriteArtifacts(artifacts, a.exportOptions(dir))
}

func (a *App) writeZip(artifacts []model.Artifact, dir string) (string, error) {
	if len(artifacts) == 0 {
		return "", export.ErrNothingToExport
	}
	return export.WriteZip(artifacts, a.exportOptions(dir))
}

// saveFiles implements /save: ref is "", "all", a 1-based index or a name.
// With no ref the selected file is saved, or all files if none is selected.
func (a *App) saveFiles(ref, dir string) error {
	st := a.ctrl.Snapshot()
	if len(st.Artifacts) == 0 {
		return export.ErrNothingToExport
	}

	if ref == "" && st.Selected != "" {
		ref = st.Selected
	}
	if ref == "" || strings.EqualFold(ref, "all") {
		paths, err := a.writeFiles(st.Artifacts, dir)
		a.reportWritten(paths)
		return err
	}

	art, err := a.selectArtifact(ref)
	if err != nil {
		return err
	}
	path, err := export.WriteArtifact(art, a.exportOptions(dir))
	if err != nil {
		return err
	}
	a.reportWritten([]string{path})
	return nil
}

// saveZip implements /zip.
func (a *App) saveZip(dir string) error {
	path, err := a.writeZip(a.ctrl.Snapshot().Artifacts, dir)
	if err != nil {
		return err
	}
	a.reportWritten([]string{path})
	return nil
}

// exportTranscript writes the conversation in format (md or json), opening
// the file afterwards when open is set.
func (a *App) exportTranscript(format, dir string, open bool) error {
	st := a.ctrl.Snapshot()
	if len(st.Messages) == 0 {
		return fmt.Errorf("nothing to export: the conversation is empty")
	}

	opts := a.exportOptions(dir)
	opts.OpenAfterExport = open
	exporter, err := export.ExporterFor(strings.ToLower(format), opts)
	if err != nil {
		return NewValidationError("format", format, "want md or json")
	}

	title := "session"
	for _, m := range st.Messages {
		if m.IsUser() {
			title = util.TruncateRunes(m.Content, 60)
			break
		}
	}
	desc, _ := a.ctrl.Provider()
	path, err := export.ExportToFile(&export.Bundle{
		Title:     title,
		Provider:  desc.Name,
		Model:     a.currentModel(),
		CreatedAt: st.Messages[0].Timestamp,
		Messages:  st.Messages,
		Artifacts: st.Artifacts,
	}, exporter, opts)
	if err != nil {
		return err
	}
	a.reportWritten([]string{path})
	return nil
}

// reportWritten lists written paths on stderr.
func (a *App) reportWritten(paths []string) {
	if len(paths) == 0 || a.args.JSON {
		return
	}
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		fmt.Fprintf(a.errOut, "%s %s\n", SuccessStyle.Render("Saved"), p)
	}
}
