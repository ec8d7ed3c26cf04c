// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - The config command: show, path, get, set, keys, init.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/protoforge/internal/config"
	"github.com/jeranaias/protoforge/internal/util"
)

// HandleConfig dispatches config subcommands.
func HandleConfig(w io.Writer, args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(w, args)
	case "path":
		return handleConfigPath(w, args)
	case "get":
		return handleConfigGet(w, args)
	case "set":
		return handleConfigSet(w, args.ConfigKey, args.ConfigVal)
	case "unset":
		return handleConfigSet(w, args.ConfigKey, "")
	case "keys":
		return handleConfigKeys(w, args)
	case "init", "reset":
		return handleConfigInit(w, args.Subcommand == "reset")
	default:
		return &ValidationError{
			Field:   "config subcommand",
			Value:   args.Subcommand,
			Reason:  "want show, path, get, set, unset, keys or init",
			Example: "protoforge config set ui.theme dark",
		}
	}
}

// loadFileConfig reads only the config file, without .env or environment
// overrides, so that saving never writes values that came from the
// environment.
func loadFileConfig() (*config.Config, string, error) {
	path, err := config.ActivePath()
	if err != nil {
		return nil, "", err
	}
	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if strings.HasSuffix(path, ".json") {
			err = config.LoadJSON(cfg, path)
		} else {
			err = config.LoadTOML(cfg, path)
		}
		if err != nil {
			return nil, path, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}
	cfg.SetDefaults()
	return cfg, path, nil
}

func saveFileConfig(cfg *config.Config, path string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

func handleConfigShow(w io.Writer, args Args) error {
	cfg, err := config.Load()
	if cfg == nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	path, _ := config.ActivePath()

	if args.JSON {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(cfg.String()), &data); err != nil {
			return err
		}
		data["config_path"] = path
		return NewJSONResponse("config show", data).Write(w)
	}

	fmt.Fprintln(w, TitleStyle.Render("ProtoForge Configuration"))
	section := ""
	for _, key := range config.GetAllKeys() {
		if strings.Contains(key, "<id>") {
			continue
		}
		if s, _, ok := strings.Cut(key, "."); ok && s != section {
			section = s
			fmt.Fprintln(w, SectionStyle.Render("["+s+"]"))
		}
		v, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", RenderLabel(key, 30), ValueStyle.Render(displayValue(key, v)))
	}
	for _, m := range []struct {
		key    string
		values map[string]string
	}{
		{"provider.models", cfg.Provider.Models},
		{"provider.base_urls", cfg.Provider.BaseURLs},
	} {
		for id, v := range m.values {
			key := m.key + "." + id
			fmt.Fprintf(w, "  %s %s\n", RenderLabel(key, 30), ValueStyle.Render(displayValue(key, v)))
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", DimStyle.Render("Config file:"), path)
	return nil
}

func handleConfigPath(w io.Writer, args Args) error {
	path, err := config.ActivePath()
	if err != nil {
		return err
	}
	_, statErr := os.Stat(path)
	exists := statErr == nil

	if args.JSON {
		return NewJSONResponse("config path", map[string]interface{}{
			"path":   path,
			"exists": exists,
		}).Write(w)
	}
	fmt.Fprintln(w, path)
	if !exists {
		fmt.Fprintf(os.Stderr, "%s (file does not exist; run 'protoforge config init')\n", DimStyle.Render("Note"))
	}
	return nil
}

func handleConfigGet(w io.Writer, args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "protoforge config get ui.theme")
	}
	cfg, err := config.Load()
	if cfg == nil {
		return err
	}
	key := normalizeConfigKey(args.ConfigKey)
	v, err := cfg.Get(key)
	if err != nil {
		return NewValidationError("key", args.ConfigKey, err.Error())
	}
	if args.JSON {
		return NewJSONResponse("config get", map[string]interface{}{
			"key":   key,
			"value": displayValue(key, v),
		}).Write(w)
	}
	fmt.Fprintln(w, displayValue(key, v))
	return nil
}

func handleConfigSet(w io.Writer, key, value string) error {
	if key == "" {
		return ErrMissingArgument("key", "protoforge config set ui.theme dark")
	}
	key = normalizeConfigKey(key)

	cfg, path, err := loadFileConfig()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return NewValidationError("key", key, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration value: %w", err)
	}
	if err := saveFileConfig(cfg, path); err != nil {
		return NewCommandError("config set", "save", "could not write "+path, err)
	}

	if value == "" {
		fmt.Fprintf(w, "%s %s cleared\n", SuccessStyle.Render("[OK]"), key)
	} else {
		fmt.Fprintf(w, "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, displayValue(key, value))
	}
	return nil
}

func handleConfigKeys(w io.Writer, args Args) error {
	keys := config.GetAllKeys()
	if args.JSON {
		return NewJSONResponse("config keys", keys).Write(w)
	}
	for _, k := range keys {
		fmt.Fprintln(w, k)
	}
	return nil
}

func handleConfigInit(w io.Writer, force bool) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		if !force {
			return fmt.Errorf("%s already exists (use 'protoforge config reset' to overwrite)", path)
		}
		if IsTTY() && !PromptYesNo(os.Stdin, os.Stderr, fmt.Sprintf("Overwrite %s with defaults?", path)) {
			fmt.Fprintln(w, DimStyle.Render("Cancelled."))
			return nil
		}
	}
	if err := saveFileConfig(config.Default(), path); err != nil {
		return NewCommandError("config init", "save", "could not write "+path, err)
	}
	fmt.Fprintf(w, "%s Wrote %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}

// normalizeConfigKey accepts "UI.Theme" or "ui_theme" style keys for the
// top-level sections.
func normalizeConfigKey(key string) string {
	key = strings.TrimSpace(key)
	if !strings.Contains(key, ".") {
		if s, rest, ok := strings.Cut(key, "_"); ok {
			key = s + "." + rest
		}
	}
	section, rest, ok := strings.Cut(key, ".")
	if !ok {
		return strings.ToLower(key)
	}
	return strings.ToLower(section) + "." + rest
}

// displayValue masks secrets.
func displayValue(key string, v interface{}) string {
	s := fmt.Sprint(v)
	lower := strings.ToLower(key)
	if strings.Contains(lower, "key") || strings.Contains(lower, "secret") || strings.Contains(lower, "token") {
		if s == "" {
			return "(not set)"
		}
		return util.MaskSecret(s)
	}
	if s == "" {
		return `""`
	}
	return s
}
