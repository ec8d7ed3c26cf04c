// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

var envKeys = []string{
	"PROTOFORGE_PROVIDER",
	"PROTOFORGE_MODEL",
	"PROTOFORGE_API_KEY",
	"PROTOFORGE_TIMEOUT",
	"PROTOFORGE_OLLAMA_URL",
	"PROTOFORGE_TEMPLATE_FALLBACK",
	"PROTOFORGE_PREFS_PATH",
	"PROTOFORGE_EXPORT_DIR",
	"PROTOFORGE_SEAL_CREDENTIALS",
	"PROTOFORGE_THEME",
}

// isolate points HOME at a temp dir and blanks every override variable.
// It returns the config directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	dir := filepath.Join(home, ".protoforge")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %q, want %q", cfg.Version, CurrentVersion)
	}
	if !cfg.Generation.TemplateFallback {
		t.Error("template fallback should default to on")
	}
	if !cfg.Storage.SealCredentials {
		t.Error("credential sealing should default to on")
	}
	if cfg.Timeout() != DefaultTimeoutSecs*time.Second {
		t.Errorf("Timeout() = %v", cfg.Timeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{"valid default", func(c *Config) {}, ""},
		{"known provider", func(c *Config) { c.Provider.Default = "anthropic" }, ""},
		{"unknown provider", func(c *Config) { c.Provider.Default = "acme" }, "provider.default"},
		{"negative timeout", func(c *Config) { c.Provider.TimeoutSecs = -1 }, "provider.timeout_secs"},
		{"huge timeout", func(c *Config) { c.Provider.TimeoutSecs = MaxTimeoutSecs + 1 }, "provider.timeout_secs"},
		{"zero timeout", func(c *Config) { c.Provider.TimeoutSecs = 0 }, ""},
		{"model for unknown provider", func(c *Config) {
			c.Provider.Models = map[string]string{"acme": "m"}
		}, "provider.models.acme"},
		{"base url ok", func(c *Config) {
			c.Provider.BaseURLs = map[string]string{"ollama": "http://127.0.0.1:11434"}
		}, ""},
		{"base url bad scheme", func(c *Config) {
			c.Provider.BaseURLs = map[string]string{"openai": "ftp://example.com"}
		}, "provider.base_urls.openai"},
		{"base url no host", func(c *Config) {
			c.Provider.BaseURLs = map[string]string{"openai": "https://"}
		}, "provider.base_urls.openai"},
		{"empty export dir", func(c *Config) { c.Storage.ExportDir = " " }, "storage.export_dir"},
		{"invalid theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"theme case-insensitive", func(c *Config) { c.UI.Theme = "Dark" }, ""},
		{"wrap too wide", func(c *Config) { c.UI.WordWrap = MaxWordWrap + 1 }, "ui.word_wrap"},
		{"unknown highlight style", func(c *Config) { c.UI.HighlightStyle = "no-such-style" }, "ui.highlight_style"},
		{"known highlight style", func(c *Config) { c.UI.HighlightStyle = "github" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() = %v, want ValidateErrors", err)
			}
			found := false
			for _, e := range verrs {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() = %v, want an error on %s", err, tt.wantField)
			}
		})
	}
}

func TestValidateErrors_Error(t *testing.T) {
	errs := ValidateErrors{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}
	if got := errs.Error(); got != "a: bad; b: worse" {
		t.Errorf("Error() = %q", got)
	}
	if got := (ValidateErrors{}).Error(); got != "no validation errors" {
		t.Errorf("empty Error() = %q", got)
	}
}

// =============================================================================
// LOADING
// =============================================================================

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UI.Theme != "auto" || !cfg.Generation.TemplateFallback {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_TOML(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[provider]
default = "Google"
timeout_secs = 30

[provider.models]
google = "gemini-1.5-flash"

[provider.base_urls]
ollama = "http://gpu-box:11434"

[generation]
template_fallback = false

[ui]
theme = "dark"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Provider.Default != "google" {
		t.Errorf("Default = %q, want lower-cased google", cfg.Provider.Default)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Timeout() = %v", cfg.Timeout())
	}
	if got := cfg.ModelFor("google"); got != "gemini-1.5-flash" {
		t.Errorf("ModelFor(google) = %q", got)
	}
	if got := cfg.BaseURLFor("ollama"); got != "http://gpu-box:11434" {
		t.Errorf("BaseURLFor(ollama) = %q", got)
	}
	if cfg.Generation.TemplateFallback {
		t.Error("template_fallback = false was not applied")
	}
	if !cfg.Storage.SealCredentials {
		t.Error("keys absent from the file should keep defaults")
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.json"), `{"ui": {"theme": "light", "word_wrap": 100}}`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UI.Theme != "light" || cfg.UI.WordWrap != 100 {
		t.Errorf("JSON values not applied: %+v", cfg.UI)
	}
}

func TestLoad_BrokenFileReturnsDefaultsAndError(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[provider\nbroken")

	cfg, err := Load()
	if err == nil {
		t.Fatal("expected a load error")
	}
	if cfg == nil || cfg.UI.Theme != "auto" {
		t.Errorf("expected usable defaults alongside the error, got %+v", cfg)
	}
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[ui]\ntheme = \"neon\"\n")

	cfg, err := Load()
	if err == nil || !strings.Contains(err.Error(), "ui.theme") {
		t.Errorf("Load() error = %v, want ui.theme validation error", err)
	}
	if cfg == nil || cfg.UI.Theme != "auto" {
		t.Fatalf("expected usable defaults alongside the error, got %+v", cfg)
	}
}

func TestLoad_OutOfRangeTimeoutFallsBackToDefaults(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[provider]\ntimeout_secs = 9999\n")

	cfg, err := Load()
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Errorf("Load() error = %v, want a timeout validation error", err)
	}
	if cfg == nil || cfg.Timeout() != Default().Timeout() {
		t.Fatalf("expected default timeout alongside the error, got %+v", cfg)
	}
}

func TestLoad_TightensPermissions(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "version = \"1\"\n")
	if err := os.Chmod(path, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %o, want 0600", info.Mode().Perm())
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PROTOFORGE_PROVIDER", "deepseek")
	t.Setenv("PROTOFORGE_MODEL", "deepseek-coder")
	t.Setenv("PROTOFORGE_API_KEY", "sk-env-0123456789")
	t.Setenv("PROTOFORGE_TIMEOUT", "45")
	t.Setenv("PROTOFORGE_OLLAMA_URL", "http://10.0.0.5:11434")
	t.Setenv("PROTOFORGE_TEMPLATE_FALLBACK", "false")
	t.Setenv("PROTOFORGE_SEAL_CREDENTIALS", "0")
	t.Setenv("PROTOFORGE_EXPORT_DIR", "/tmp/out")
	t.Setenv("PROTOFORGE_THEME", "light")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Provider.Default != "deepseek" || cfg.Provider.Model != "deepseek-coder" {
		t.Errorf("provider overrides not applied: %+v", cfg.Provider)
	}
	if cfg.Provider.APIKey != "sk-env-0123456789" {
		t.Error("api key override not applied")
	}
	if cfg.Provider.TimeoutSecs != 45 {
		t.Errorf("TimeoutSecs = %d", cfg.Provider.TimeoutSecs)
	}
	if cfg.BaseURLFor("ollama") != "http://10.0.0.5:11434" {
		t.Errorf("ollama url = %q", cfg.BaseURLFor("ollama"))
	}
	if cfg.Generation.TemplateFallback || cfg.Storage.SealCredentials {
		t.Error("boolean overrides not applied")
	}
	if cfg.Storage.ExportDir != "/tmp/out" || cfg.UI.Theme != "light" {
		t.Error("string overrides not applied")
	}
	// per-provider model still wins over the global one
	cfg.Provider.Models = map[string]string{"deepseek": "deepseek-chat"}
	if cfg.ModelFor("deepseek") != "deepseek-chat" {
		t.Errorf("ModelFor = %q", cfg.ModelFor("deepseek"))
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("PROTOFORGE_MODEL")
	t.Cleanup(func() { os.Unsetenv("PROTOFORGE_MODEL") })
	writeFile(t, filepath.Join(dir, ".env"), "PROTOFORGE_MODEL=from-dotenv\n")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.Model != "from-dotenv" {
		t.Errorf("Model = %q, want value from .env", cfg.Provider.Model)
	}
}

func TestLoad_EnvBeatsDotEnv(t *testing.T) {
	dir := isolate(t)
	t.Setenv("PROTOFORGE_THEME", "dark")
	writeFile(t, filepath.Join(dir, ".env"), "PROTOFORGE_THEME=light\n")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("Theme = %q, real environment should win", cfg.UI.Theme)
	}
}

// =============================================================================
// SAVE / GET / SET
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Provider.Default = "xai"
	cfg.Provider.Models = map[string]string{"xai": "grok-beta"}
	cfg.UI.WordWrap = 90

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %o, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.Provider.Default != "xai" || loaded.ModelFor("xai") != "grok-beta" || loaded.UI.WordWrap != 90 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("ui.theme", "light"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("ui.word_wrap", "72"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("generation.template_fallback", "no"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("provider.models.openai", "gpt-4o"); err != nil {
		t.Fatal(err)
	}

	if v, _ := cfg.Get("ui.theme"); v != "light" {
		t.Errorf("ui.theme = %v", v)
	}
	if v, _ := cfg.Get("ui.word_wrap"); v != 72 {
		t.Errorf("ui.word_wrap = %v", v)
	}
	if v, _ := cfg.Get("generation.template_fallback"); v != false {
		t.Errorf("template_fallback = %v", v)
	}
	if v, _ := cfg.Get("provider.models.openai"); v != "gpt-4o" {
		t.Errorf("models.openai = %v", v)
	}
	if v, _ := cfg.Get("provider.models.google"); v != "" {
		t.Errorf("missing map entry = %v, want empty", v)
	}

	if err := cfg.Set("provider.models.openai", ""); err != nil {
		t.Fatal(err)
	}
	if _, ok := cfg.Provider.Models["openai"]; ok {
		t.Error("setting an empty value should remove the entry")
	}

	for _, bad := range []string{"", "nope", "ui", "ui.nope", "provider.models", "ui.theme.x"} {
		if _, err := cfg.Get(bad); err == nil {
			t.Errorf("Get(%q) should fail", bad)
		}
	}
	if err := cfg.Set("ui.word_wrap", "wide"); err == nil {
		t.Error("non-numeric int should fail")
	}
}

func TestConfig_StringRedacts(t *testing.T) {
	cfg := Default()
	cfg.Provider.APIKey = "sk-secret-0123456789"
	cfg.Provider.BaseURLs = map[string]string{"google": "https://proxy.example.com/v1?key=AIzaSecret"}

	s := cfg.String()
	if strings.Contains(s, "sk-secret") || strings.Contains(s, "AIzaSecret") {
		t.Errorf("String() leaked a secret:\n%s", s)
	}
	if !strings.Contains(s, "[REDACTED]") {
		t.Error("String() should mark the redacted key")
	}
	if cfg.Provider.APIKey != "sk-secret-0123456789" {
		t.Error("String() must not modify the original")
	}
}

func TestConfig_CloneIsDeep(t *testing.T) {
	cfg := Default()
	cfg.Provider.Models = map[string]string{"openai": "a"}
	clone := cfg.Clone()
	clone.Provider.Models["openai"] = "b"
	if cfg.Provider.Models["openai"] != "a" {
		t.Error("Clone shares the models map")
	}
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_ReloadsOnChange(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[ui]\ntheme = \"dark\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	w, err := NewWatcher(path, 20*time.Millisecond, func(cfg *Config, err error) {
		if err == nil {
			got <- cfg
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	go w.Run(ctx)

	writeFile(t, path, "[ui]\ntheme = \"light\"\n")

	select {
	case cfg := <-got:
		if cfg.UI.Theme != "light" {
			t.Errorf("reloaded theme = %q, want light", cfg.UI.Theme)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after the file changed")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "config.toml"), nil)
	if err == nil {
		t.Error("watching a missing directory should fail")
	}
}

// =============================================================================
// GLOBAL SINGLETON
// =============================================================================

func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			c := Default()
			c.Version = "test"
			SetGlobal(c)
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
		go func() {
			defer wg.Done()
			_ = ReloadGlobal()
		}()
	}
	wg.Wait()
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	_ = Global()
	custom := Default()
	custom.Version = "custom-version"
	SetGlobal(custom)

	if Global().Version != "custom-version" {
		t.Errorf("Global().Version = %q", Global().Version)
	}
}
