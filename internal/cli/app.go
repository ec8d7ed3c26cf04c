// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Wiring shared by the commands that talk to a provider: config,
// the preference store, credential sealing and the session controller.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/protoforge/internal/config"
	"github.com/jeranaias/protoforge/internal/provider"
	"github.com/jeranaias/protoforge/internal/security"
	"github.com/jeranaias/protoforge/internal/session"
	"github.com/jeranaias/protoforge/internal/storage"
)

// AppOptions overrides the process defaults. Zero values mean "use the
// real thing": loaded config, stdin/stdout/stderr and a fresh HTTP client.
type AppOptions struct {
	Config     *config.Config
	In         io.Reader
	Out        io.Writer
	ErrOut     io.Writer
	HTTPClient *http.Client
}

// App is one CLI invocation's session.
type App struct {
	mu  sync.RWMutex
	cfg *config.Config

	args   Args
	store  *storage.PrefStore
	ctrl   *session.Controller
	render *Renderer
	logger *log.Logger
	client *http.Client

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// NewApp loads configuration and preferences and builds the controller.
//
// Stored preferences win over config defaults: provider.default and
// provider.api_key only seed a first run. --provider selects a provider for
// this invocation without touching the store.
func NewApp(args Args, opts AppOptions) (*App, error) {
	a := &App{
		args:   args,
		in:     opts.In,
		out:    opts.Out,
		errOut: opts.ErrOut,
		client: opts.HTTPClient,
	}
	if a.in == nil {
		a.in = os.Stdin
	}
	if a.out == nil {
		a.out = os.Stdout
	}
	if a.errOut == nil {
		a.errOut = os.Stderr
	}

	a.logger = log.New(io.Discard, "", 0)
	if args.Verbose {
		a.logger = log.New(a.errOut, "[protoforge] ", log.LstdFlags)
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load()
		if loaded == nil {
			return nil, err
		}
		if err != nil {
			a.warn("%v (using defaults)", err)
		}
		cfg = loaded
	}
	a.cfg = cfg

	store, err := a.openStore(cfg)
	if err != nil {
		return nil, err
	}
	a.store = store

	ctx := context.Background()
	prefs, err := store.LoadPreferences(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrCredentialUnreadable) {
			store.Close()
			return nil, WrapError(err, "failed to load preferences")
		}
		a.warn("%v; set it again with 'protoforge key'", err)
	}
	if prefs.Provider == "" {
		prefs.Provider = cfg.Provider.Default
	}
	if args.Provider != "" {
		if _, ok := provider.Lookup(args.Provider); !ok {
			store.Close()
			return nil, NewValidationError("provider", args.Provider, "unknown provider")
		}
		prefs.Provider = args.Provider
	}

	a.ctrl = session.NewController(prefs, session.Options{
		Factory:          a.newCompleter,
		Store:            store,
		EnvCredential:    cfg.Provider.APIKey,
		TemplateFallback: cfg.Generation.TemplateFallback,
		SystemPrompt:     cfg.Generation.SystemPrompt,
		Logger:           a.logger,
	})
	a.render = NewRenderer(cfg.UI, a.out)
	return a, nil
}

// openStore opens the preference database, sealing the credential unless
// storage.seal_credentials is off.
func (a *App) openStore(cfg *config.Config) (*storage.PrefStore, error) {
	path := cfg.Storage.PrefsPath
	if path == "" {
		p, err := storage.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve preference path: %w", err)
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create preference directory: %w", err)
	}

	var sealer storage.Sealer
	if cfg.Storage.SealCredentials {
		s, err := security.OpenSealer(filepath.Dir(path), os.Getenv(security.PassphraseEnv))
		if err != nil {
			return nil, fmt.Errorf("failed to open credential key: %w", err)
		}
		sealer = s
	}

	store, err := storage.OpenPrefStore(path, sealer)
	if err != nil {
		return nil, err
	}
	a.logger.Printf("preferences: %s (sealed=%t)", path, sealer != nil)
	return store, nil
}

// newCompleter is the controller's factory. It reads the config at call
// time so a reloaded config applies to the next turn.
func (a *App) newCompleter(desc provider.Descriptor, credential string) (provider.Completer, error) {
	cfg := a.config()

	var opts []provider.Option
	if a.client != nil {
		opts = append(opts, provider.WithHTTPClient(a.client))
	}
	opts = append(opts,
		provider.WithTimeout(cfg.Timeout()),
		provider.WithModel(a.modelFor(cfg, desc.ID)),
		provider.WithBaseURL(cfg.BaseURLFor(desc.ID)),
		provider.WithLogger(a.logger),
	)
	return provider.New(desc, credential, opts...)
}

// modelFor resolves the model: --model, then the config.
func (a *App) modelFor(cfg *config.Config, id string) string {
	if a.args.Model != "" {
		return a.args.Model
	}
	return cfg.ModelFor(id)
}

// currentModel is the model name the next turn will use, for display.
func (a *App) currentModel() string {
	desc, ok := a.ctrl.Provider()
	if !ok {
		return ""
	}
	if m := a.modelFor(a.config(), desc.ID); m != "" {
		return m
	}
	return desc.DefaultModel()
}

func (a *App) config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// applyConfig swaps in a reloaded config.
func (a *App) applyConfig(cfg *config.Config) {
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()
	a.ctrl.SetTemplateFallback(cfg.Generation.TemplateFallback)
	a.render.Configure(cfg.UI)
}

// Close releases the preference store.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// warn prints a warning on stderr unless --quiet.
func (a *App) warn(format string, args ...interface{}) {
	if a.args.Quiet {
		return
	}
	fmt.Fprintf(a.errOut, "%s %s\n", WarningStyle.Render("Warning:"), fmt.Sprintf(format, args...))
}

// info prints a status line on stderr, keeping stdout for content.
func (a *App) info(format string, args ...interface{}) {
	if a.args.Quiet || a.args.JSON {
		return
	}
	fmt.Fprintln(a.errOut, DimStyle.Render(fmt.Sprintf(format, args...)))
}
