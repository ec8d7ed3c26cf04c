// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/protoforge/internal/model"
	"github.com/jeranaias/protoforge/internal/util"
)

// ZipName is the archive name used for "download all".
const ZipName = "protoforge_project.zip"

// ErrNothingToExport is returned when an artifact set is empty.
var ErrNothingToExport = errors.New("no files to export")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Bundle is the exportable view of a session.
type Bundle struct {
	Title     string           `json:"title"`
	Provider  string           `json:"provider,omitempty"`
	Model     string           `json:"model,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Messages  []model.Message  `json:"messages"`
	Artifacts []model.Artifact `json:"artifacts"`
}

// Exporter renders a bundle in one format.
type Exporter interface {
	// Export converts a bundle to the target format.
	Export(b *Bundle) ([]byte, error)

	// FileExtension includes the dot, e.g. ".md".
	FileExtension() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where files are written.
	// Default: current working directory
	OutputDir string

	// Overwrite replaces existing files instead of failing.
	Overwrite bool

	// OpenAfterExport opens the written file in the default application.
	OpenAfterExport bool

	// IncludeTimestamps adds per-message timestamps to transcripts.
	IncludeTimestamps bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		Overwrite:         true,
		IncludeTimestamps: true,
	}
}

// =============================================================================
// TRANSCRIPTS
// =============================================================================

// ExportToFile renders b with exporter and writes it to the output
// directory. Returns the written path.
func ExportToFile(b *Bundle, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(b)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("protoforge_%s_%s%s",
		sanitizeFilename(b.Title, "session"),
		timestamp,
		exporter.FileExtension(),
	)

	path, err := writeFile(opts, filename, content)
	if err != nil {
		return "", err
	}
	maybeOpen(path, opts)
	return path, nil
}

// =============================================================================
// ARTIFACT FILES
// =============================================================================

// WriteArtifact writes one artifact under its sanitized name.
func WriteArtifact(a model.Artifact, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	path, err := writeFile(opts, sanitizeFilename(a.Name, "artifact.txt"), []byte(a.Content))
	if err != nil {
		return "", err
	}
	maybeOpen(path, opts)
	return path, nil
}

// WriteArtifacts writes every artifact and returns the paths in order.
func WriteArtifacts(artifacts []model.Artifact, opts *Options) ([]string, error) {
	if len(artifacts) == 0 {
		return nil, ErrNothingToExport
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	names := UniqueNames(artifacts)
	paths := make([]string, 0, len(artifacts))
	for i, a := range artifacts {
		path, err := writeFile(opts, names[i], []byte(a.Content))
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteZip bundles every artifact into ZipName in the output directory.
func WriteZip(artifacts []model.Artifact, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	var buf bytes.Buffer
	if err := ZipArtifacts(&buf, artifacts); err != nil {
		return "", err
	}
	path, err := writeFile(opts, ZipName, buf.Bytes())
	if err != nil {
		return "", err
	}
	maybeOpen(path, opts)
	return path, nil
}

// ZipArtifacts writes a zip archive of artifacts to w.
func ZipArtifacts(w io.Writer, artifacts []model.Artifact) error {
	if len(artifacts) == 0 {
		return ErrNothingToExport
	}

	zw := zip.NewWriter(w)
	names := UniqueNames(artifacts)
	for i, a := range artifacts {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     names[i],
			Method:   zip.Deflate,
			Modified: time.Now(),
		})
		if err != nil {
			zw.Close()
			return fmt.Errorf("add %s to archive: %w", names[i], err)
		}
		if _, err := io.WriteString(fw, a.Content); err != nil {
			zw.Close()
			return fmt.Errorf("write %s to archive: %w", names[i], err)
		}
	}
	return zw.Close()
}

// UniqueNames returns sanitized file names for artifacts. A repeated name
// gets _2, _3, ... before its extension.
func UniqueNames(artifacts []model.Artifact) []string {
	seen := make(map[string]bool, len(artifacts))
	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		name := sanitizeFilename(a.Name, fmt.Sprintf("artifact_%d.txt", i+1))
		if seen[strings.ToLower(name)] {
			ext := filepath.Ext(name)
			base := strings.TrimSuffix(name, ext)
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
				if !seen[strings.ToLower(candidate)] {
					name = candidate
					break
				}
			}
		}
		seen[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// writeFile writes content to name inside opts.OutputDir.
func writeFile(opts *Options, name string, content []byte) (string, error) {
	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(dir, name)
	if !opts.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s already exists", path)
		}
	}
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// sanitizeFilename replaces characters that are invalid in file names and
// strips any directory part. Empty results become fallback.
func sanitizeFilename(s, fallback string) string {
	s = util.TruncateRunesNoEllipsis(s, 80)

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := []rune{}
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	name := strings.Trim(string(result), ".")
	if name == "" {
		return fallback
	}
	return name
}

// maybeOpen opens path when requested. Failure is only a warning.
func maybeOpen(path string, opts *Options) {
	if !opts.OpenAfterExport {
		return
	}
	if err := openFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open file: %v\n", err)
	}
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
