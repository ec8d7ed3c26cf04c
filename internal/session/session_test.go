// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/protoforge/internal/model"
	"github.com/jeranaias/protoforge/internal/provider"
)

const codeReply = "Here is your firmware:\n\n```python\nimport time\n\nwhile True:\n    print('watering the plants now')\n    time.sleep(60)\n```\n"

// fakeCompleter returns canned replies and records the turns it was given.
type fakeCompleter struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]provider.Turn
	block   chan struct{} // if set, Complete waits for it to close
	entered chan struct{} // if set, signalled when Complete starts
}

func (f *fakeCompleter) Complete(ctx context.Context, turns []provider.Turn) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, turns)
	n := len(f.calls)
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return "", f.err
	}
	if n <= len(f.replies) {
		return f.replies[n-1], nil
	}
	return "ok", nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func factoryFor(c provider.Completer) CompleterFactory {
	return func(provider.Descriptor, string) (provider.Completer, error) { return c, nil }
}

// memoryStore records saved preferences.
type memoryStore struct {
	mu    sync.Mutex
	saved []model.Preferences
	err   error
}

func (m *memoryStore) SavePreferences(_ context.Context, p model.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, p)
	return m.err
}

func (m *memoryStore) last() model.Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[len(m.saved)-1]
}

var readyPrefs = model.Preferences{Provider: provider.IDOpenAI, Credential: "sk-0123456789abcdef"}

// =============================================================================
// STATE TRANSFORMS
// =============================================================================

func TestState_Immutable(t *testing.T) {
	s := NewState(model.Preferences{})
	s2 := s.AppendMessage(model.NewUserMessage("hi"))

	assert.Empty(t, s.Messages)
	assert.Len(t, s2.Messages, 1)
	assert.Equal(t, model.DefaultView, s.View)
}

func TestState_ReplaceArtifactsKeepsSelection(t *testing.T) {
	a := model.NewArtifact("file_1.py", model.KindCode, "x", "python")
	b := model.NewArtifact("diagram_2.mmd", model.KindDiagram, "y", "mermaid")

	s := NewState(model.Preferences{}).ReplaceArtifacts([]model.Artifact{a, b})
	s, ok := s.SelectArtifact("diagram_2.mmd")
	require.True(t, ok)

	kept := s.ReplaceArtifacts([]model.Artifact{model.NewArtifact("diagram_2.mmd", model.KindDiagram, "z", "")})
	assert.Equal(t, "diagram_2.mmd", kept.Selected)

	dropped := s.ReplaceArtifacts([]model.Artifact{a})
	assert.Empty(t, dropped.Selected)

	_, ok = s.SelectArtifact("nope")
	assert.False(t, ok)
}

func TestState_ClearKeepsPreferences(t *testing.T) {
	s := NewState(model.Preferences{Provider: "google", Credential: "AIza-0123456789", View: model.ViewCode})
	s = s.AppendMessage(model.NewUserMessage("x")).ReplaceArtifacts([]model.Artifact{model.NewArtifact("a", model.KindText, "", "")})
	s = s.Clear()

	assert.Empty(t, s.Messages)
	assert.Empty(t, s.Artifacts)
	assert.Equal(t, model.Preferences{Provider: "google", Credential: "AIza-0123456789", View: model.ViewCode}, s.Preferences())
}

func TestState_Visible(t *testing.T) {
	arts := []model.Artifact{
		model.NewArtifact("file_1.js", model.KindCode, "", "js"),
		model.NewArtifact("diagram_2.mmd", model.KindDiagram, "", ""),
		model.NewArtifact("3d_model.json", model.KindModel3D, "", ""),
	}
	s := NewState(model.Preferences{View: model.View3D}).ReplaceArtifacts(arts)
	require.Len(t, s.Visible(), 1)
	assert.Equal(t, "3d_model.json", s.Visible()[0].Name)
}

// =============================================================================
// SEND: CONFIGURATION
// =============================================================================

func TestSend_ConfigurationErrorsDoNotTouchLog(t *testing.T) {
	tests := []struct {
		name  string
		prefs model.Preferences
	}{
		{"no provider", model.Preferences{Credential: "sk-0123456789abcdef"}},
		{"unknown provider", model.Preferences{Provider: "acme", Credential: "sk-0123456789abcdef"}},
		{"empty key", model.Preferences{Provider: provider.IDOpenAI}},
		{"short key", model.Preferences{Provider: provider.IDAnthropic, Credential: "sk-ant"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCompleter{}
			c := NewController(tt.prefs, Options{Factory: factoryFor(fake)})

			_, err := c.Send(context.Background(), "build a thing")
			require.Error(t, err)
			assert.True(t, provider.IsConfiguration(err), "err = %T", err)
			assert.Empty(t, c.Snapshot().Messages)
			assert.False(t, c.Snapshot().Busy)
			assert.Zero(t, fake.callCount())
		})
	}
}

func TestSend_OllamaNeedsNoKey(t *testing.T) {
	fake := &fakeCompleter{replies: []string{"local answer"}}
	c := NewController(model.Preferences{Provider: provider.IDOllama}, Options{Factory: factoryFor(fake)})

	msg, err := c.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "local answer", msg.Content)
}

func TestSend_EmptyMessage(t *testing.T) {
	c := NewController(readyPrefs, Options{Factory: factoryFor(&fakeCompleter{})})
	_, err := c.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

// =============================================================================
// SEND: SUCCESS AND FAILURE
// =============================================================================

func TestSend_SuccessAppendsAndReplaces(t *testing.T) {
	fake := &fakeCompleter{replies: []string{codeReply}}
	c := NewController(readyPrefs, Options{Factory: factoryFor(fake)})

	msg, err := c.Send(context.Background(), "a plant watering gadget")
	require.NoError(t, err)

	s := c.Snapshot()
	require.Len(t, s.Messages, 2)
	assert.Equal(t, model.RoleUser, s.Messages[0].Role)
	assert.Equal(t, "a plant watering gadget", s.Messages[0].Content)
	assert.Equal(t, model.RoleAssistant, s.Messages[1].Role)
	assert.Equal(t, msg.ID, s.Messages[1].ID)
	assert.False(t, s.Busy)

	// code block plus the 3D descriptor for the gadget prompt
	require.Len(t, s.Artifacts, 2)
	assert.Equal(t, "file_1.py", s.Artifacts[0].Name)
	assert.Equal(t, "3d_model.json", s.Artifacts[1].Name)
	assert.Equal(t, s.Artifacts, msg.Artifacts)
}

func TestSend_TurnsIncludePriorHistory(t *testing.T) {
	fake := &fakeCompleter{replies: []string{"first reply", "second reply"}}
	c := NewController(readyPrefs, Options{Factory: factoryFor(fake), SystemPrompt: "sys"})
	ctx := context.Background()

	_, err := c.Send(ctx, "one")
	require.NoError(t, err)
	_, err = c.Send(ctx, "two")
	require.NoError(t, err)

	require.Equal(t, 2, fake.callCount())
	turns := fake.calls[1]
	require.Len(t, turns, 4)
	assert.Equal(t, provider.Turn{Role: model.RoleSystem, Content: "sys"}, turns[0])
	assert.Equal(t, provider.Turn{Role: model.RoleUser, Content: "one"}, turns[1])
	assert.Equal(t, provider.Turn{Role: model.RoleAssistant, Content: "first reply"}, turns[2])
	assert.Equal(t, provider.Turn{Role: model.RoleUser, Content: "two"}, turns[3])
}

func TestSend_FailureKeepsArtifacts(t *testing.T) {
	fake := &fakeCompleter{replies: []string{codeReply}}
	c := NewController(readyPrefs, Options{Factory: factoryFor(fake)})
	ctx := context.Background()

	_, err := c.Send(ctx, "a todo app")
	require.NoError(t, err)
	before := c.Snapshot().Artifacts
	require.NotEmpty(t, before)

	fake.err = &provider.ProviderError{Provider: "OpenAI", Status: 401, Message: "invalid_api_key"}
	msg, err := c.Send(ctx, "again")
	require.Error(t, err)
	assert.True(t, provider.IsProvider(err))

	assert.Equal(t, "Error: invalid_api_key", msg.Content)
	assert.Equal(t, model.RoleAssistant, msg.Role)

	s := c.Snapshot()
	assert.Len(t, s.Messages, 4)
	assert.Equal(t, "Error: invalid_api_key", s.Messages[3].Content)
	assert.Equal(t, before, s.Artifacts)
	assert.False(t, s.Busy)
}

func TestSend_FactoryErrorBecomesErrorMessage(t *testing.T) {
	factory := func(provider.Descriptor, string) (provider.Completer, error) {
		return nil, errors.New("no endpoint configured")
	}
	c := NewController(readyPrefs, Options{Factory: factory})

	msg, err := c.Send(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, "Error: no endpoint configured", msg.Content)
	assert.Len(t, c.Snapshot().Messages, 2)
}

func TestSend_ProseReplyEmptiesArtifacts(t *testing.T) {
	fake := &fakeCompleter{replies: []string{codeReply, "Just some thoughts, no code."}}
	c := NewController(readyPrefs, Options{Factory: factoryFor(fake)})
	ctx := context.Background()

	_, err := c.Send(ctx, "a todo app")
	require.NoError(t, err)
	_, err = c.Send(ctx, "explain it")
	require.NoError(t, err)

	assert.Empty(t, c.Snapshot().Artifacts, "artifact set always tracks the latest reply")
}

func TestSend_TemplateFallback(t *testing.T) {
	fake := &fakeCompleter{replies: []string{"Sounds great, here's an overview."}}
	c := NewController(readyPrefs, Options{Factory: factoryFor(fake), TemplateFallback: true})

	msg, err := c.Send(context.Background(), "an arduino hardware blinker")
	require.NoError(t, err)

	names := make([]string, len(msg.Artifacts))
	for i, a := range msg.Artifacts {
		names[i] = a.Name
	}
	assert.Contains(t, names, "main.ino")
	assert.Contains(t, names, "diagram.mmd")
	assert.Contains(t, names, "3d_model.json")
	assert.Equal(t, msg.Artifacts, c.Snapshot().Artifacts)
}

// =============================================================================
// SEND: BUSY
// =============================================================================

func TestSend_TemplateFallbackSkippedWhenReplyHasCode(t *testing.T) {
	fake := &fakeCompleter{replies: []string{codeReply}}
	c := NewController(readyPrefs, Options{Factory: factoryFor(fake), TemplateFallback: true})

	msg, err := c.Send(context.Background(), "a plant watering timer")
	require.NoError(t, err)

	require.Len(t, msg.Artifacts, 1)
	assert.Equal(t, "file_1.py", msg.Artifacts[0].Name)
	assert.Empty(t, model.FilterByKind(msg.Artifacts, model.KindDiagram))
}

func TestSend_BusyRejectsSecondTurn(t *testing.T) {
	fake := &fakeCompleter{
		replies: []string{"first"},
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	c := NewController(readyPrefs, Options{Factory: factoryFor(fake)})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := c.Send(ctx, "one")
		done <- err
	}()

	select {
	case <-fake.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first turn never reached the provider")
	}

	s := c.Snapshot()
	assert.True(t, s.Busy)
	require.Len(t, s.Messages, 1, "user message is appended before the call")

	_, err := c.Send(ctx, "two")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Len(t, c.Snapshot().Messages, 1, "rejected turn must not touch the log")

	close(fake.block)
	require.NoError(t, <-done)

	s = c.Snapshot()
	assert.False(t, s.Busy)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, "one", s.Messages[0].Content)
	assert.Equal(t, "first", s.Messages[1].Content)
	assert.Equal(t, 1, fake.callCount())
}

// =============================================================================
// PREFERENCES
// =============================================================================

func TestController_PreferencesPersisted(t *testing.T) {
	store := &memoryStore{}
	c := NewController(model.Preferences{}, Options{Store: store})
	ctx := context.Background()

	require.NoError(t, c.SetProvider(ctx, provider.IDAnthropic))
	require.NoError(t, c.SetCredential(ctx, "  sk-ant-0123456789  "))
	require.NoError(t, c.SetView(ctx, model.ViewDiagram))

	assert.Equal(t, model.Preferences{
		Provider:   provider.IDAnthropic,
		Credential: "sk-ant-0123456789",
		View:       model.ViewDiagram,
	}, store.last())
	assert.Len(t, store.saved, 3)
}

func TestController_EnvCredentialNotPersisted(t *testing.T) {
	store := &memoryStore{}
	c := NewController(model.Preferences{Provider: provider.IDOpenAI}, Options{
		Store:         store,
		EnvCredential: "sk-env-0123456789",
	})
	ctx := context.Background()

	snap := c.Snapshot()
	assert.Equal(t, "sk-env-0123456789", snap.Credential)
	assert.True(t, snap.CredentialFromEnv)

	require.NoError(t, c.SetView(ctx, model.ViewCode))
	assert.Empty(t, store.last().Credential)
	assert.True(t, store.last().KeepStoredCredential)

	require.NoError(t, c.SetCredential(ctx, "sk-typed-0123456789"))
	assert.Equal(t, "sk-typed-0123456789", store.last().Credential)
	assert.False(t, store.last().KeepStoredCredential)
	assert.False(t, c.Snapshot().CredentialFromEnv)
}

func TestController_StoredCredentialBeatsEnv(t *testing.T) {
	c := NewController(model.Preferences{Provider: provider.IDOpenAI, Credential: "sk-stored-0123456"}, Options{
		EnvCredential: "sk-env-0123456789",
	})
	snap := c.Snapshot()
	assert.Equal(t, "sk-stored-0123456", snap.Credential)
	assert.False(t, snap.CredentialFromEnv)
}

func TestController_RejectsBadPreferences(t *testing.T) {
	store := &memoryStore{}
	c := NewController(model.Preferences{Provider: provider.IDOpenAI}, Options{Store: store})
	ctx := context.Background()

	err := c.SetProvider(ctx, "acme")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "openai"), "error lists known providers")

	err = c.SetCredential(ctx, "short")
	require.Error(t, err)
	assert.Equal(t, "API key seems too short. Please check.", err.Error())

	assert.Empty(t, store.saved)
	assert.Equal(t, provider.IDOpenAI, c.Snapshot().ProviderID)
}

func TestController_StoreFailureKeepsMemoryState(t *testing.T) {
	store := &memoryStore{err: errors.New("disk full")}
	c := NewController(model.Preferences{}, Options{Store: store})

	err := c.SetView(context.Background(), model.ViewCode)
	require.Error(t, err)
	assert.Equal(t, model.ViewCode, c.Snapshot().View)
}

func TestController_MessagesNeverPersisted(t *testing.T) {
	store := &memoryStore{}
	fake := &fakeCompleter{replies: []string{codeReply}}
	c := NewController(readyPrefs, Options{Factory: factoryFor(fake), Store: store})

	_, err := c.Send(context.Background(), "a todo app")
	require.NoError(t, err)
	assert.Empty(t, store.saved, "turns must not write preferences")
}

func TestController_SelectAndClear(t *testing.T) {
	fake := &fakeCompleter{replies: []string{codeReply}}
	c := NewController(readyPrefs, Options{Factory: factoryFor(fake)})
	_, err := c.Send(context.Background(), "a todo app")
	require.NoError(t, err)

	a, ok := c.Select("file_1.py")
	require.True(t, ok)
	assert.Equal(t, "file_1.py", a.Name)

	_, ok = c.Select("missing.txt")
	assert.False(t, ok)
	assert.Equal(t, "file_1.py", c.Snapshot().Selected)

	c.Clear()
	s := c.Snapshot()
	assert.Empty(t, s.Messages)
	assert.Empty(t, s.Artifacts)
	assert.Empty(t, s.Selected)
	assert.Equal(t, provider.IDOpenAI, s.ProviderID)
}

func TestController_SnapshotIsolation(t *testing.T) {
	fake := &fakeCompleter{replies: []string{codeReply}}
	c := NewController(readyPrefs, Options{Factory: factoryFor(fake)})
	_, err := c.Send(context.Background(), "a todo app")
	require.NoError(t, err)

	s := c.Snapshot()
	s.Messages[0].Content = "tampered"
	s.Artifacts[0].Name = "tampered"

	fresh := c.Snapshot()
	assert.Equal(t, "a todo app", fresh.Messages[0].Content)
	assert.Equal(t, "file_1.py", fresh.Artifacts[0].Name)
}
