// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - Machine-readable output for --json mode.
//
// Human-readable messages go to stderr when JSON mode is enabled so stdout
// stays parseable.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jeranaias/protoforge/internal/model"
)

// JSONResponse is the envelope for every --json command output.
type JSONResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Error     *string     `json:"error"`
	Timestamp string      `json:"timestamp"`
	Command   string      `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w with indentation.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// =============================================================================
// COMMAND DATA
// =============================================================================

// AskData is returned by ask and export.
type AskData struct {
	Provider   string           `json:"provider"`
	Model      string           `json:"model,omitempty"`
	Reply      string           `json:"reply"`
	Artifacts  []model.Artifact `json:"artifacts"`
	Written    []string         `json:"written,omitempty"`
	DurationMs int64            `json:"duration_ms"`
}

// ProviderData describes one registered provider.
type ProviderData struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Selected       bool     `json:"selected"`
	NeedsKey       bool     `json:"needs_key"`
	CredentialHint string   `json:"credential_hint,omitempty"`
	DefaultModel   string   `json:"default_model,omitempty"`
	Models         []string `json:"models,omitempty"`
	HelpURL        string   `json:"help_url,omitempty"`
}

// StatusData is returned by the status command.
type StatusData struct {
	Provider   string `json:"provider"`
	Model      string `json:"model,omitempty"`
	KeySet     bool   `json:"key_configured"`
	KeyMasked  string `json:"key,omitempty"`
	KeySource  string `json:"key_source,omitempty"` // "stored" or "environment"
	Ready      bool   `json:"ready"`
	Problem    string `json:"problem,omitempty"`
	View       string `json:"view"`
	PrefsPath  string `json:"prefs_path"`
	ConfigPath string `json:"config_path,omitempty"`
	Sealed     bool   `json:"credentials_sealed"`
	Fallback   bool   `json:"template_fallback"`
	ExportDir  string `json:"export_dir"`
}

// GenerateData is returned by the generate command.
type GenerateData struct {
	Kind      string           `json:"kind"`
	Artifacts []model.Artifact `json:"artifacts"`
	Written   []string         `json:"written,omitempty"`
}

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}
