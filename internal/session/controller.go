// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/jeranaias/protoforge/internal/artifact"
	"github.com/jeranaias/protoforge/internal/generator"
	"github.com/jeranaias/protoforge/internal/model"
	"github.com/jeranaias/protoforge/internal/provider"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy is returned when a turn is already in flight.
	ErrBusy = errors.New("a request is already in progress")

	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("message is empty")
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// CompleterFactory builds the completer for the selected provider. It is
// called once per turn with the current descriptor and credential.
type CompleterFactory func(desc provider.Descriptor, credential string) (provider.Completer, error)

// PreferenceStore persists the preference subset of the state.
// *storage.PrefStore implements it.
type PreferenceStore interface {
	SavePreferences(ctx context.Context, prefs model.Preferences) error
}

// DefaultFactory builds a *provider.Adapter with the given options.
func DefaultFactory(opts ...provider.Option) CompleterFactory {
	return func(desc provider.Descriptor, credential string) (provider.Completer, error) {
		return provider.New(desc, credential, opts...)
	}
}

// Options configures a Controller.
type Options struct {
	// Factory builds the provider client. Default: DefaultFactory().
	Factory CompleterFactory

	// Store receives preference changes. Nil disables persistence.
	Store PreferenceStore

	// TemplateFallback fills the artifact set from templates when a reply
	// contains no fenced blocks.
	TemplateFallback bool

	// EnvCredential is used when the stored preferences carry no
	// credential. It is never written to the store.
	EnvCredential string

	// SystemPrompt overrides provider.SystemPrompt.
	SystemPrompt string

	// Logger receives turn diagnostics. Default: discard.
	Logger *log.Logger
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the session State and runs turns against the selected
// provider. All methods are safe for concurrent use; Send admits one turn at
// a time.
type Controller struct {
	mu           sync.Mutex
	state        State
	factory      CompleterFactory
	store        PreferenceStore
	fallback     bool
	systemPrompt string
	logger       *log.Logger
}

// NewController creates a controller seeded from persisted preferences.
func NewController(prefs model.Preferences, opts Options) *Controller {
	c := &Controller{
		state:        NewState(prefs),
		factory:      opts.Factory,
		store:        opts.Store,
		fallback:     opts.TemplateFallback,
		systemPrompt: opts.SystemPrompt,
		logger:       opts.Logger,
	}
	if c.state.Credential == "" && opts.EnvCredential != "" {
		c.state.Credential = opts.EnvCredential
		c.state.CredentialFromEnv = true
	}
	if c.factory == nil {
		c.factory = DefaultFactory()
	}
	if c.systemPrompt == "" {
		c.systemPrompt = provider.SystemPrompt
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Provider returns the descriptor of the selected provider.
func (c *Controller) Provider() (provider.Descriptor, bool) {
	c.mu.Lock()
	id := c.state.ProviderID
	c.mu.Unlock()
	if id == "" {
		return provider.Descriptor{}, false
	}
	return provider.Lookup(id)
}

// =============================================================================
// TURNS
// =============================================================================

// Send runs one conversational turn.
//
// Configuration problems are returned as *provider.ConfigurationError before
// anything is logged. Otherwise the user message is appended, one provider
// call is made, and exactly one assistant message is appended: the reply
// with its artifacts, or an "Error: ..." message. The returned message is
// that assistant message; err is the provider failure, if any.
func (c *Controller) Send(ctx context.Context, text string) (model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	desc, err := c.validateLocked()
	if err != nil {
		c.mu.Unlock()
		return model.Message{}, err
	}
	if c.state.Busy {
		c.mu.Unlock()
		return model.Message{}, ErrBusy
	}
	history := c.state.History()
	credential := c.state.Credential
	c.state = c.state.AppendMessage(model.NewUserMessage(text)).SetBusy(true)
	c.mu.Unlock()

	reply, err := c.complete(ctx, desc, credential, history, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.state = c.state.SetBusy(false) }()

	if err != nil {
		c.logger.Printf("turn failed (provider=%s): %v", desc.ID, err)
		msg := model.NewErrorMessage(err)
		c.state = c.state.AppendMessage(msg)
		return msg, err
	}

	artifacts := artifact.Extract(reply, text)
	if len(artifacts) == 0 && c.fallback {
		artifacts = generator.Fallback(text)
		c.logger.Printf("reply had no fenced blocks; using %d template files", len(artifacts))
	}

	msg := model.NewAssistantMessage(reply, artifacts)
	c.state = c.state.AppendMessage(msg).ReplaceArtifacts(artifacts)
	return msg, nil
}

// complete builds the client and issues the single provider call.
func (c *Controller) complete(ctx context.Context, desc provider.Descriptor, credential string, history []model.Message, text string) (string, error) {
	client, err := c.factory(desc, credential)
	if err != nil {
		return "", err
	}
	return client.Complete(ctx, provider.BuildTurns(c.systemPrompt, history, text))
}

// validateLocked checks that a known provider and an acceptable credential
// are set. c.mu must be held.
func (c *Controller) validateLocked() (provider.Descriptor, error) {
	if c.state.ProviderID == "" {
		return provider.Descriptor{}, provider.ErrNoProvider
	}
	desc, ok := provider.Lookup(c.state.ProviderID)
	if !ok {
		return provider.Descriptor{}, &provider.ConfigurationError{
			Field:   "provider",
			Message: fmt.Sprintf("unknown provider %q", c.state.ProviderID),
		}
	}
	if err := provider.ValidateCredential(desc, c.state.Credential); err != nil {
		return provider.Descriptor{}, err
	}
	return desc, nil
}

// =============================================================================
// PREFERENCES
// =============================================================================

// SetProvider selects a registered provider and persists the choice.
func (c *Controller) SetProvider(ctx context.Context, id string) error {
	if _, ok := provider.Lookup(id); !ok {
		return &provider.ConfigurationError{
			Field:   "provider",
			Message: fmt.Sprintf("unknown provider %q (want one of %s)", id, strings.Join(provider.IDs(), ", ")),
		}
	}
	return c.update(ctx, func(s State) State { return s.WithProvider(id) })
}

// SetCredential validates credential against the selected provider and
// persists it.
func (c *Controller) SetCredential(ctx context.Context, credential string) error {
	credential = strings.TrimSpace(credential)
	desc, _ := c.Provider()
	if err := provider.ValidateCredential(desc, credential); err != nil {
		return err
	}
	return c.update(ctx, func(s State) State { return s.WithCredential(credential) })
}

// SetView switches the active view and persists it.
func (c *Controller) SetView(ctx context.Context, v model.View) error {
	return c.update(ctx, func(s State) State { return s.WithView(v) })
}

// update applies fn and writes the new preferences. The in-memory change
// stands even if persisting fails.
func (c *Controller) update(ctx context.Context, fn func(State) State) error {
	c.mu.Lock()
	c.state = fn(c.state)
	prefs := c.state.Preferences()
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if err := c.store.SavePreferences(ctx, prefs); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// =============================================================================
// ARTIFACTS
// =============================================================================

// Select marks the named artifact as selected.
func (c *Controller) Select(name string) (model.Artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, ok := c.state.SelectArtifact(name)
	if !ok {
		return model.Artifact{}, false
	}
	c.state = next
	return c.state.SelectedArtifact()
}

// SetTemplateFallback toggles template generation for replies without
// fenced blocks. It applies from the next turn.
func (c *Controller) SetTemplateFallback(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback = enabled
}

// Clear empties the conversation and the artifact set.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.state.Clear()
}
