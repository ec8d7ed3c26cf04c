// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/protoforge/internal/model"
)

func sampleArtifacts() []model.Artifact {
	return []model.Artifact{
		model.NewArtifact("index.html", model.KindCode, "<h1>hi</h1>", "html"),
		model.NewArtifact("README.md", model.KindText, "# Hardware", ""),
		model.NewArtifact("README.md", model.KindText, "# Project", ""),
		model.NewArtifact("diagram_4.mmd", model.KindDiagram, "graph TD\n A-->B", "mermaid"),
	}
}

func testOptions(t *testing.T) *Options {
	t.Helper()
	return &Options{OutputDir: t.TempDir(), Overwrite: true}
}

// =============================================================================
// NAMES
// =============================================================================

func TestUniqueNames(t *testing.T) {
	arts := []model.Artifact{
		{Name: "README.md"},
		{Name: "readme.md"},
		{Name: "README_2.md"},
		{Name: "../../etc/passwd"},
		{Name: ""},
		{Name: "Makefile"},
		{Name: "Makefile"},
	}
	got := UniqueNames(arts)
	want := []string{"README.md", "readme_2.md", "README_2_2.md", "-..-etc-passwd", "artifact_5.txt", "Makefile", "Makefile_2"}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"file_1.py", "file_1.py"},
		{"my robot: v2?", "my_robot-_v2-"},
		{"a/b\\c", "a-b-c"},
		{"..", "fallback"},
		{"", "fallback"},
		{"tab\there", "tab_here"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in, "fallback"); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// =============================================================================
// FILES
// =============================================================================

func TestWriteArtifact(t *testing.T) {
	opts := testOptions(t)
	a := model.NewArtifact("file_1.py", model.KindCode, "print('hi')", "python")

	path, err := WriteArtifact(a, opts)
	if err != nil {
		t.Fatalf("WriteArtifact failed: %v", err)
	}
	if filepath.Base(path) != "file_1.py" {
		t.Errorf("path = %s", path)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "print('hi')" {
		t.Errorf("content = %q", data)
	}
}

func TestWriteArtifact_NoOverwrite(t *testing.T) {
	opts := testOptions(t)
	a := model.NewArtifact("x.txt", model.KindCode, "one", "")
	if _, err := WriteArtifact(a, opts); err != nil {
		t.Fatalf("first write: %v", err)
	}

	opts.Overwrite = false
	a.Content = "two"
	if _, err := WriteArtifact(a, opts); err == nil {
		t.Error("expected error when file exists and Overwrite is false")
	}
}

func TestWriteArtifacts(t *testing.T) {
	opts := testOptions(t)
	paths, err := WriteArtifacts(sampleArtifacts(), opts)
	if err != nil {
		t.Fatalf("WriteArtifacts failed: %v", err)
	}
	if len(paths) != 4 {
		t.Fatalf("wrote %d files, want 4", len(paths))
	}

	second, _ := os.ReadFile(filepath.Join(opts.OutputDir, "README_2.md"))
	if string(second) != "# Project" {
		t.Errorf("README_2.md = %q", second)
	}
}

func TestWriteArtifacts_Empty(t *testing.T) {
	if _, err := WriteArtifacts(nil, testOptions(t)); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("err = %v, want ErrNothingToExport", err)
	}
}

// =============================================================================
// ZIP
// =============================================================================

func TestZipArtifacts(t *testing.T) {
	var buf bytes.Buffer
	if err := ZipArtifacts(&buf, sampleArtifacts()); err != nil {
		t.Fatalf("ZipArtifacts failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("invalid zip: %v", err)
	}

	got := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		got[f.Name] = string(data)
	}

	want := map[string]string{
		"index.html":    "<h1>hi</h1>",
		"README.md":     "# Hardware",
		"README_2.md":   "# Project",
		"diagram_4.mmd": "graph TD\n A-->B",
	}
	for name, content := range want {
		if got[name] != content {
			t.Errorf("%s = %q, want %q", name, got[name], content)
		}
	}
	if len(got) != len(want) {
		t.Errorf("archive has %d entries, want %d", len(got), len(want))
	}
}

func TestWriteZip(t *testing.T) {
	opts := testOptions(t)
	path, err := WriteZip(sampleArtifacts(), opts)
	if err != nil {
		t.Fatalf("WriteZip failed: %v", err)
	}
	if filepath.Base(path) != ZipName {
		t.Errorf("zip name = %s, want %s", filepath.Base(path), ZipName)
	}
	if _, err := zip.OpenReader(path); err != nil {
		t.Errorf("written zip unreadable: %v", err)
	}
}

func TestWriteZip_Empty(t *testing.T) {
	if _, err := WriteZip(nil, testOptions(t)); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("err = %v, want ErrNothingToExport", err)
	}
}

// =============================================================================
// TRANSCRIPTS
// =============================================================================

func sampleBundle() *Bundle {
	arts := []model.Artifact{
		model.NewArtifact("file_1.md", model.KindCode, "Use ```go``` fences", "markdown"),
		model.NewArtifact("3d_model.json", model.KindModel3D, `{"type":"robot"}`, ""),
	}
	return &Bundle{
		Title:     "Robot [v1]",
		Provider:  "OpenAI",
		Model:     "gpt-4o",
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Messages: []model.Message{
			model.NewUserMessage("Build a robot"),
			model.NewAssistantMessage("Here you go", arts),
		},
		Artifacts: arts,
	}
}

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(&Options{}).Export(sampleBundle())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	md := string(out)

	checks := []string{
		"# Robot \\[v1\\]\n",
		"- **Provider**: OpenAI",
		"- **Model**: gpt-4o",
		"### You\n\nBuild a robot",
		"### ProtoForge\n\nHere you go",
		"<sub>Generated: `file_1.md`, `3d_model.json`</sub>",
		"## Files",
		"````markdown\nUse ```go``` fences\n````",
		"```json\n{\"type\":\"robot\"}\n```",
		"*Exported from ProtoForge on",
	}
	for _, c := range checks {
		if !strings.Contains(md, c) {
			t.Errorf("markdown missing %q", c)
		}
	}
}

func TestMarkdownExporter_Empty(t *testing.T) {
	if _, err := NewMarkdownExporter(nil).Export(&Bundle{}); err == nil {
		t.Error("expected error for empty session")
	}
	if _, err := NewMarkdownExporter(nil).Export(nil); err == nil {
		t.Error("expected error for nil bundle")
	}
}

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(sampleBundle())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var decoded struct {
		Format   string         `json:"format"`
		Version  int            `json:"version"`
		Title    string         `json:"title"`
		Counts   map[string]int `json:"counts"`
		Messages []struct {
			Role      string   `json:"role"`
			Timestamp *string  `json:"timestamp"`
			Artifacts []string `json:"artifacts"`
		} `json:"messages"`
		Artifacts []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"artifacts"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Format != "protoforge-transcript" || decoded.Version != jsonFormatVersion {
		t.Errorf("header = %q v%d", decoded.Format, decoded.Version)
	}
	if decoded.Title != "Robot [v1]" || len(decoded.Artifacts) != 2 || decoded.Artifacts[1].Type != "model3d" {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Counts["code"] != 1 || decoded.Counts["model3d"] != 1 {
		t.Errorf("counts = %v", decoded.Counts)
	}
	if len(decoded.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(decoded.Messages))
	}
	reply := decoded.Messages[1]
	if reply.Timestamp == nil {
		t.Error("default options should keep timestamps")
	}
	if strings.Join(reply.Artifacts, ",") != "file_1.md,3d_model.json" {
		t.Errorf("reply artifacts = %v", reply.Artifacts)
	}
}

func TestJSONExporter_NoTimestamps(t *testing.T) {
	out, err := NewJSONExporter(&Options{}).Export(sampleBundle())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if strings.Contains(string(out), `"timestamp"`) {
		t.Errorf("timestamps present:\n%s", out)
	}
	if _, err := NewJSONExporter(nil).Export(nil); err == nil {
		t.Error("expected error for nil bundle")
	}
}

func TestExportToFile(t *testing.T) {
	opts := testOptions(t)
	path, err := ExportToFile(sampleBundle(), NewMarkdownExporter(opts), opts)
	if err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "protoforge_Robot_[v1]_") || !strings.HasSuffix(base, ".md") {
		t.Errorf("file name = %s", base)
	}
}

func TestExporterFor(t *testing.T) {
	for _, f := range []string{"md", "markdown", "json"} {
		if _, err := ExporterFor(f, nil); err != nil {
			t.Errorf("ExporterFor(%q) failed: %v", f, err)
		}
	}
	var unsupported *UnsupportedFormatError
	if _, err := ExporterFor("pdf", nil); !errors.As(err, &unsupported) {
		t.Error("expected error for pdf")
	}
}
