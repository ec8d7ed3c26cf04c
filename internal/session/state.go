// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/jeranaias/protoforge/internal/model"
)

// =============================================================================
// STATE
// =============================================================================

// State is a snapshot of the session. Methods never modify the receiver;
// each returns an updated copy, so a State handed out by Snapshot stays
// valid while the controller moves on.
type State struct {
	ProviderID string
	Credential string

	// CredentialFromEnv marks a credential taken from the configuration
	// or environment. It is used for requests but never persisted.
	CredentialFromEnv bool

	Messages  []model.Message
	Artifacts []model.Artifact
	Selected  string // name of the selected artifact, "" for none
	View      model.View
	Busy      bool
}

// NewState seeds a state from persisted preferences.
func NewState(prefs model.Preferences) State {
	prefs = prefs.Normalized()
	return State{
		ProviderID: prefs.Provider,
		Credential: prefs.Credential,
		View:       prefs.View,
	}
}

// Preferences returns the persisted subset of s.
func (s State) Preferences() model.Preferences {
	p := model.Preferences{Provider: s.ProviderID, Credential: s.Credential, View: s.View}
	if s.CredentialFromEnv {
		p.Credential = ""
		p.KeepStoredCredential = true
	}
	return p
}

// WithProvider selects a provider. The credential is kept.
func (s State) WithProvider(id string) State {
	s.ProviderID = id
	return s
}

// WithCredential replaces the credential.
func (s State) WithCredential(credential string) State {
	s.Credential = credential
	s.CredentialFromEnv = false
	return s
}

// WithView switches the active view.
func (s State) WithView(v model.View) State {
	s.View = v
	return s
}

// AppendMessage adds m to the end of the log.
func (s State) AppendMessage(m model.Message) State {
	msgs := make([]model.Message, len(s.Messages), len(s.Messages)+1)
	copy(msgs, s.Messages)
	s.Messages = append(msgs, m)
	return s
}

// ReplaceArtifacts swaps in a new artifact set. The selection survives only
// if an artifact with the same name is in the new set.
func (s State) ReplaceArtifacts(artifacts []model.Artifact) State {
	s.Artifacts = append([]model.Artifact(nil), artifacts...)
	if _, ok := model.FindByName(s.Artifacts, s.Selected); !ok {
		s.Selected = ""
	}
	return s
}

// SelectArtifact marks the named artifact as selected. It reports false and
// leaves s unchanged when no such artifact exists.
func (s State) SelectArtifact(name string) (State, bool) {
	if _, ok := model.FindByName(s.Artifacts, name); !ok {
		return s, false
	}
	s.Selected = name
	return s, true
}

// SetBusy sets the busy flag.
func (s State) SetBusy(busy bool) State {
	s.Busy = busy
	return s
}

// Clear empties the log and the artifact set. Preferences are kept.
func (s State) Clear() State {
	s.Messages = nil
	s.Artifacts = nil
	s.Selected = ""
	return s
}

// History returns a copy of the message log.
func (s State) History() []model.Message {
	return append([]model.Message(nil), s.Messages...)
}

// SelectedArtifact returns the selected artifact, if any.
func (s State) SelectedArtifact() (model.Artifact, bool) {
	if s.Selected == "" {
		return model.Artifact{}, false
	}
	return model.FindByName(s.Artifacts, s.Selected)
}

// Visible returns the artifacts shown by the active view.
func (s State) Visible() []model.Artifact {
	return model.FilterByKind(s.Artifacts, s.View.Kinds()...)
}

// LastReply returns the most recent assistant message.
func (s State) LastReply() (model.Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].IsAssistant() {
			return s.Messages[i], true
		}
	}
	return model.Message{}, false
}

// clone deep-copies the slices so callers cannot alias controller state.
func (s State) clone() State {
	s.Messages = s.History()
	s.Artifacts = append([]model.Artifact(nil), s.Artifacts...)
	return s
}
