// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/jeranaias/protoforge/internal/model"
	"github.com/jeranaias/protoforge/internal/security"
)

func openTestStore(t *testing.T, sealer Sealer) *PrefStore {
	t.Helper()
	store, err := OpenPrefStore(filepath.Join(t.TempDir(), "prefs.db"), sealer)
	if err != nil {
		t.Fatalf("OpenPrefStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// KEY/VALUE TESTS
// =============================================================================

func TestPrefStore_SetGet(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, nil)

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	if err := store.Set(ctx, "theme", "dark"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "theme", "light"); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}

	v, ok, err := store.Get(ctx, "theme")
	if err != nil || !ok || v != "light" {
		t.Errorf("Get(theme) = %q, %v, %v", v, ok, err)
	}

	keys, err := store.Keys(ctx)
	if err != nil || len(keys) != 1 || keys[0] != "theme" {
		t.Errorf("Keys = %v, %v", keys, err)
	}

	if err := store.Delete(ctx, "theme"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "theme"); err != nil {
		t.Errorf("Delete of missing key failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "theme"); ok {
		t.Error("key still present after Delete")
	}
}

func TestPrefStore_Closed(t *testing.T) {
	store := openTestStore(t, nil)
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if err := store.Set(context.Background(), "k", "v"); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Set after close = %v, want ErrStoreClosed", err)
	}
}

func TestPrefStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on Windows")
	}
	store := openTestStore(t, nil)
	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("database mode = %o, want 0600", perm)
	}
}

// =============================================================================
// PREFERENCES TESTS
// =============================================================================

func TestPreferences_Defaults(t *testing.T) {
	prefs, err := openTestStore(t, nil).LoadPreferences(context.Background())
	if err != nil {
		t.Fatalf("LoadPreferences failed: %v", err)
	}
	if prefs.Provider != "" || prefs.Credential != "" {
		t.Errorf("empty store loaded %+v", prefs)
	}
	if prefs.View != model.DefaultView {
		t.Errorf("View = %q, want %q", prefs.View, model.DefaultView)
	}
}

func TestPreferences_RoundTripAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")

	store, err := OpenPrefStore(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	want := model.Preferences{Provider: "anthropic", Credential: "sk-ant-0123456789", View: model.ViewCode}
	if err := store.SavePreferences(ctx, want); err != nil {
		t.Fatalf("SavePreferences failed: %v", err)
	}
	store.Close()

	reopened, err := OpenPrefStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.LoadPreferences(ctx)
	if err != nil {
		t.Fatalf("LoadPreferences failed: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestPreferences_KeepStoredCredential(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, nil)

	if err := store.SavePreferences(ctx, model.Preferences{
		Provider: "openai", View: model.ViewCode, KeepStoredCredential: true, Credential: "sk-ignored-0123",
	}); err != nil {
		t.Fatalf("SavePreferences failed: %v", err)
	}
	if _, ok, err := store.Get(ctx, KeyCredential); err != nil || ok {
		t.Fatalf("credential row present=%v err=%v, want absent", ok, err)
	}

	if err := store.SavePreferences(ctx, model.Preferences{Provider: "openai", Credential: "sk-stored-0123"}); err != nil {
		t.Fatalf("SavePreferences failed: %v", err)
	}
	if err := store.SavePreferences(ctx, model.Preferences{Provider: "gemini", KeepStoredCredential: true}); err != nil {
		t.Fatalf("SavePreferences failed: %v", err)
	}
	got, err := store.LoadPreferences(ctx)
	if err != nil {
		t.Fatalf("LoadPreferences failed: %v", err)
	}
	if got.Provider != "gemini" || got.Credential != "sk-stored-0123" {
		t.Errorf("got %+v, want gemini with the stored credential", got)
	}
}

func TestPreferences_UnknownViewNormalized(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, nil)
	if err := store.Set(ctx, KeyView, "hologram"); err != nil {
		t.Fatal(err)
	}
	prefs, err := store.LoadPreferences(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if prefs.View != model.DefaultView {
		t.Errorf("View = %q, want default", prefs.View)
	}
}

func TestPreferences_SealedCredential(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sealer, err := security.OpenSealer(dir, "")
	if err != nil {
		t.Fatalf("OpenSealer: %v", err)
	}
	store := openTestStore(t, sealer)

	prefs := model.Preferences{Provider: "openai", Credential: "sk-secret-0123456789", View: model.View3D}
	if err := store.SavePreferences(ctx, prefs); err != nil {
		t.Fatalf("SavePreferences failed: %v", err)
	}

	raw, _, err := store.Get(ctx, KeyCredential)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(raw, security.EncryptedPrefix) || strings.Contains(raw, "sk-secret") {
		t.Errorf("credential stored unsealed: %q", raw)
	}

	got, err := store.LoadPreferences(ctx)
	if err != nil {
		t.Fatalf("LoadPreferences failed: %v", err)
	}
	if got != prefs {
		t.Errorf("got %+v, want %+v", got, prefs)
	}
}

// failingSealer cannot unseal anything.
type failingSealer struct{}

func (failingSealer) Seal(s string) (string, error) { return "ENC:" + s, nil }
func (failingSealer) Unseal(string) (string, error) { return "", errors.New("bad key") }

func TestPreferences_UnreadableCredential(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, failingSealer{})
	if err := store.SavePreferences(ctx, model.Preferences{Provider: "google", Credential: "AIza0123456789", View: model.ViewDiagram}); err != nil {
		t.Fatal(err)
	}

	prefs, err := store.LoadPreferences(ctx)
	if !errors.Is(err, ErrCredentialUnreadable) {
		t.Fatalf("err = %v, want ErrCredentialUnreadable", err)
	}
	if prefs.Provider != "google" || prefs.View != model.ViewDiagram || prefs.Credential != "" {
		t.Errorf("partial prefs = %+v", prefs)
	}
}

func TestPreferences_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			view := model.Views[i%len(model.Views)]
			if err := store.SavePreferences(ctx, model.Preferences{Provider: "ollama", View: view}); err != nil {
				t.Errorf("SavePreferences: %v", err)
			}
		}(i)
	}
	wg.Wait()

	prefs, err := store.LoadPreferences(ctx)
	if err != nil || prefs.Provider != "ollama" {
		t.Errorf("after concurrent saves: %+v, %v", prefs, err)
	}
}
