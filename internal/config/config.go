// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/joho/godotenv"

	"github.com/jeranaias/protoforge/internal/provider"
	"github.com/jeranaias/protoforge/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete protoforge configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Provider   ProviderConfig   `toml:"provider" json:"provider"`
	Generation GenerationConfig `toml:"generation" json:"generation"`
	Storage    StorageConfig    `toml:"storage" json:"storage"`
	UI         UIConfig         `toml:"ui" json:"ui"`
}

// ProviderConfig controls how chat requests are issued.
type ProviderConfig struct {
	// Default is the provider id used when no preference has been saved yet.
	Default string `toml:"default" json:"default"`
	// Model overrides the model name for whichever provider is selected.
	Model string `toml:"model" json:"model"`
	// APIKey seeds the credential when none has been saved. Usually set
	// through PROTOFORGE_API_KEY or a .env file rather than written here.
	APIKey string `toml:"api_key" json:"api_key"`
	// TimeoutSecs bounds a single provider call. 0 disables the timeout.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// Models holds per-provider model overrides, keyed by provider id.
	Models map[string]string `toml:"models" json:"models"`
	// BaseURLs holds per-provider endpoint overrides, keyed by provider id.
	BaseURLs map[string]string `toml:"base_urls" json:"base_urls"`
}

// GenerationConfig controls artifact generation.
type GenerationConfig struct {
	// TemplateFallback fills the artifact set from the built-in templates
	// when a reply contains no fenced blocks.
	TemplateFallback bool `toml:"template_fallback" json:"template_fallback"`
	// SystemPrompt replaces the built-in assistant instructions.
	SystemPrompt string `toml:"system_prompt" json:"system_prompt"`
}

// StorageConfig controls where preferences and exports live.
type StorageConfig struct {
	// PrefsPath is the preference database (empty = ~/.protoforge/prefs.db).
	PrefsPath string `toml:"prefs_path" json:"prefs_path"`
	// ExportDir is where /save, /zip and `protoforge export` write files.
	ExportDir string `toml:"export_dir" json:"export_dir"`
	// SealCredentials encrypts the stored API key with AES-256-GCM.
	SealCredentials bool `toml:"seal_credentials" json:"seal_credentials"`
}

// UIConfig contains terminal presentation settings.
type UIConfig struct {
	// Theme is the markdown rendering theme: "auto", "dark", "light" or "notty".
	Theme string `toml:"theme" json:"theme"`
	// WordWrap is the markdown wrap column. 0 uses the terminal width.
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
	// HighlightStyle is a chroma style name for artifact display.
	HighlightStyle string `toml:"highlight_style" json:"highlight_style"`
	// ShowTimestamps prefixes transcript lines with the message time.
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// CurrentVersion is the config schema version written by Save.
	CurrentVersion = "1"

	// DefaultTimeoutSecs bounds provider calls unless configured otherwise.
	DefaultTimeoutSecs = 120

	// MaxTimeoutSecs is the largest accepted provider timeout.
	MaxTimeoutSecs = 600

	// MaxWordWrap is the widest accepted wrap column.
	MaxWordWrap = 400
)

// validThemes are the glamour standard style names accepted by ui.theme.
var validThemes = []string{"auto", "dark", "light", "notty"}

// Default returns a configuration with built-in defaults.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Provider: ProviderConfig{
			TimeoutSecs: DefaultTimeoutSecs,
		},
		Generation: GenerationConfig{
			TemplateFallback: true,
		},
		Storage: StorageConfig{
			ExportDir:       ".",
			SealCredentials: true,
		},
		UI: UIConfig{
			Theme:          "auto",
			HighlightStyle: "monokai",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the protoforge configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".protoforge"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ActivePath returns the config file Load would read: the TOML file if it
// exists, else the JSON file if it exists, else the TOML path.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions tightens config files to 0600, since they may
// hold an API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if mode&0077 != 0 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.protoforge/config.toml, falling back to config.json and then
// to defaults. .env values are loaded into the environment and PROTOFORGE_*
// overrides applied last.
//
// A file that fails to parse or validate is reported alongside a usable
// default config. Load returns nil only when the defaults themselves are
// invalid, which can happen through a bad PROTOFORGE_* value.
func Load() (*Config, error) {
	LoadDotEnv()

	fromFile, fileErr := readConfigFile()
	if fromFile != nil {
		cfg, err := finish(fromFile)
		if err == nil {
			return cfg, nil
		}
		fileErr = err
	}

	cfg, err := finish(Default())
	if err != nil {
		return nil, errors.Join(fileErr, err)
	}
	return cfg, fileErr
}

// readConfigFile decodes the TOML file, else the JSON file, over the
// defaults. It returns defaults when neither exists and nil when every file
// present failed to parse.
func readConfigFile() (*Config, error) {
	var parseErr error
	found := false

	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			found = true
			cfg := Default()
			err := LoadTOML(cfg, path)
			if err == nil {
				return cfg, nil
			}
			parseErr = fmt.Errorf("failed to load TOML config: %w", err)
		}
	}

	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			found = true
			cfg := Default()
			err := LoadJSON(cfg, path)
			if err == nil {
				return cfg, nil
			}
			parseErr = errors.Join(parseErr, fmt.Errorf("failed to load JSON config: %w", err))
		}
	}

	if !found {
		return Default(), nil
	}
	return nil, parseErr
}

// LoadFromPath loads configuration from a specific file. The format follows
// the extension: .json is JSON, anything else TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

// finish applies environment overrides, defaults and validation.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// cfg's current values.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadDotEnv loads ./.env and ~/.protoforge/.env into the process
// environment. Variables that are already set are left alone, so the real
// environment wins over either file.
func LoadDotEnv() {
	paths := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", p, err)
		}
	}
}

// SetDefaults fills zero values that must not stay empty.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Storage.ExportDir == "" {
		c.Storage.ExportDir = d.Storage.ExportDir
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.HighlightStyle == "" {
		c.UI.HighlightStyle = d.UI.HighlightStyle
	}
	c.Provider.Default = strings.ToLower(strings.TrimSpace(c.Provider.Default))
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# protoforge configuration file")
	fmt.Fprintln(&buf, "# Generated by protoforge - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as indented JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns ValidateErrors listing
// every problem found, or nil.
func (c *Config) Validate() error {
	var errs ValidateErrors

	known := strings.Join(provider.IDs(), ", ")

	if c.Provider.Default != "" {
		if _, ok := provider.Lookup(c.Provider.Default); !ok {
			errs = append(errs, ValidationError{
				Field:   "provider.default",
				Message: fmt.Sprintf("unknown provider '%s', must be one of: %s", c.Provider.Default, known),
			})
		}
	}

	if c.Provider.TimeoutSecs < 0 || c.Provider.TimeoutSecs > MaxTimeoutSecs {
		errs = append(errs, ValidationError{
			Field:   "provider.timeout_secs",
			Message: fmt.Sprintf("must be between 0 and %d, got %d", MaxTimeoutSecs, c.Provider.TimeoutSecs),
		})
	}

	for _, id := range sortedKeys(c.Provider.Models) {
		if _, ok := provider.Lookup(id); !ok {
			errs = append(errs, ValidationError{
				Field:   "provider.models." + id,
				Message: fmt.Sprintf("unknown provider, must be one of: %s", known),
			})
		}
	}

	for _, id := range sortedKeys(c.Provider.BaseURLs) {
		field := "provider.base_urls." + id
		if _, ok := provider.Lookup(id); !ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown provider, must be one of: %s", known),
			})
			continue
		}
		if msg := checkURL(c.Provider.BaseURLs[id]); msg != "" {
			errs = append(errs, ValidationError{Field: field, Message: msg})
		}
	}

	if strings.TrimSpace(c.Storage.ExportDir) == "" {
		errs = append(errs, ValidationError{
			Field:   "storage.export_dir",
			Message: "must not be empty",
		})
	}

	if !contains(validThemes, strings.ToLower(c.UI.Theme)) {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: %s", c.UI.Theme, strings.Join(validThemes, ", ")),
		})
	}

	if c.UI.WordWrap < 0 || c.UI.WordWrap > MaxWordWrap {
		errs = append(errs, ValidationError{
			Field:   "ui.word_wrap",
			Message: fmt.Sprintf("must be between 0 and %d, got %d", MaxWordWrap, c.UI.WordWrap),
		})
	}

	if !knownStyle(c.UI.HighlightStyle) {
		errs = append(errs, ValidationError{
			Field:   "ui.highlight_style",
			Message: fmt.Sprintf("unknown highlight style '%s'", c.UI.HighlightStyle),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// checkURL returns a problem description for raw, or "" if it is an
// absolute http(s) URL.
func checkURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "URL must use http or https"
	}
	if u.Host == "" {
		return "URL must include a host"
	}
	return ""
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - PROTOFORGE_PROVIDER: overrides provider.default
//   - PROTOFORGE_MODEL: overrides provider.model
//   - PROTOFORGE_API_KEY: overrides provider.api_key
//   - PROTOFORGE_TIMEOUT: overrides provider.timeout_secs
//   - PROTOFORGE_OLLAMA_URL: overrides provider.base_urls.ollama
//   - PROTOFORGE_TEMPLATE_FALLBACK: "1"/"true" or "0"/"false"
//   - PROTOFORGE_PREFS_PATH: overrides storage.prefs_path
//   - PROTOFORGE_EXPORT_DIR: overrides storage.export_dir
//   - PROTOFORGE_SEAL_CREDENTIALS: "1"/"true" or "0"/"false"
//   - PROTOFORGE_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PROTOFORGE_PROVIDER"); v != "" {
		c.Provider.Default = v
	}
	if v := os.Getenv("PROTOFORGE_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("PROTOFORGE_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("PROTOFORGE_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Provider.TimeoutSecs = secs
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignoring PROTOFORGE_TIMEOUT=%q: not a number\n", v)
		}
	}
	if v := os.Getenv("PROTOFORGE_OLLAMA_URL"); v != "" {
		if c.Provider.BaseURLs == nil {
			c.Provider.BaseURLs = make(map[string]string)
		}
		c.Provider.BaseURLs[provider.IDOllama] = v
	}
	if v := os.Getenv("PROTOFORGE_TEMPLATE_FALLBACK"); v != "" {
		c.Generation.TemplateFallback = parseBool(v)
	}
	if v := os.Getenv("PROTOFORGE_PREFS_PATH"); v != "" {
		c.Storage.PrefsPath = v
	}
	if v := os.Getenv("PROTOFORGE_EXPORT_DIR"); v != "" {
		c.Storage.ExportDir = v
	}
	if v := os.Getenv("PROTOFORGE_SEAL_CREDENTIALS"); v != "" {
		c.Storage.SealCredentials = parseBool(v)
	}
	if v := os.Getenv("PROTOFORGE_THEME"); v != "" {
		c.UI.Theme = v
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Timeout returns the provider call timeout. Zero means none.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSecs) * time.Second
}

// ModelFor returns the model override for a provider: the per-provider
// entry if present, else provider.model.
func (c *Config) ModelFor(id string) string {
	if m := c.Provider.Models[id]; m != "" {
		return m
	}
	return c.Provider.Model
}

// BaseURLFor returns the endpoint override for a provider, or "".
func (c *Config) BaseURLFor(id string) string {
	return c.Provider.BaseURLs[id]
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation
// (e.g. "ui.theme" or "provider.models.openai").
func (c *Config) Get(key string) (interface{}, error) {
	field, mapKey, err := c.resolve(key)
	if err != nil {
		return nil, err
	}
	if mapKey != "" {
		v := field.MapIndex(reflect.ValueOf(mapKey))
		if !v.IsValid() {
			return "", nil
		}
		return v.Interface(), nil
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type. The result is not validated; call
// Validate before saving.
func (c *Config) Set(key string, value interface{}) error {
	field, mapKey, err := c.resolve(key)
	if err != nil {
		return err
	}
	if mapKey != "" {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("cannot assign %T to %s", value, key)
		}
		if field.IsNil() {
			field.Set(reflect.MakeMap(field.Type()))
		}
		if s == "" {
			field.SetMapIndex(reflect.ValueOf(mapKey), reflect.Value{})
		} else {
			field.SetMapIndex(reflect.ValueOf(mapKey), reflect.ValueOf(s))
		}
		return nil
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// resolve walks a dot-notation key. For map entries it returns the map
// field and the entry key.
func (c *Config) resolve(key string) (reflect.Value, string, error) {
	parts := strings.Split(key, ".")
	if key == "" || len(parts) == 0 {
		return reflect.Value{}, "", errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, "", fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		last := i == len(parts)-1
		switch {
		case last:
			if field.Kind() == reflect.Struct || field.Kind() == reflect.Map {
				return reflect.Value{}, "", fmt.Errorf("'%s' is a section, not a value", key)
			}
			return field, "", nil
		case field.Kind() == reflect.Map && i == len(parts)-2:
			return field, parts[i+1], nil
		case field.Kind() == reflect.Struct:
			v = field
		default:
			return reflect.Value{}, "", fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
	}
	return reflect.Value{}, "", fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go
// field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(part[:1]))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type
// conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(strVal))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all scalar configuration keys in dot notation.
// Map-valued sections take a provider id as the last component.
func GetAllKeys() []string {
	return []string{
		"version",
		"provider.default",
		"provider.model",
		"provider.api_key",
		"provider.timeout_secs",
		"provider.models.<id>",
		"provider.base_urls.<id>",
		"generation.template_fallback",
		"generation.system_prompt",
		"storage.prefs_path",
		"storage.export_dir",
		"storage.seal_credentials",
		"ui.theme",
		"ui.word_wrap",
		"ui.highlight_style",
		"ui.show_timestamps",
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Provider.Models = copyMap(c.Provider.Models)
	clone.Provider.BaseURLs = copyMap(c.Provider.BaseURLs)
	return &clone
}

// String returns an indented JSON rendering with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Provider.APIKey != "" {
		safe.Provider.APIKey = "[REDACTED]"
	}
	for id, u := range safe.Provider.BaseURLs {
		safe.Provider.BaseURLs[id] = redactURL(u)
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// redactURL hides userinfo and query values, where keys sometimes travel.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[REDACTED]"
	}
	if u.User != nil {
		u.User = url.User("REDACTED")
	}
	if u.RawQuery != "" {
		u.RawQuery = "REDACTED"
	}
	return u.String()
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// knownStyle reports whether name is a registered chroma style.
func knownStyle(name string) bool {
	for _, n := range styles.Names() {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. Load errors fall back to defaults with a warning.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state between tests.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
