// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Order(t *testing.T) {
	assert.Equal(t, []string{"openai", "anthropic", "google", "ollama", "deepseek", "xai"}, IDs())
	assert.Len(t, All(), 6)
}

func TestLookup(t *testing.T) {
	desc, ok := Lookup("anthropic")
	require.True(t, ok)
	assert.Equal(t, "Anthropic", desc.Name)
	assert.Equal(t, "sk-ant-...", desc.CredentialHint)
	assert.Equal(t, "claude-3-5-sonnet", desc.DefaultModel())
	assert.True(t, desc.HasModel("claude-3-haiku"))
	assert.True(t, desc.RequiresCredential())

	_, ok = Lookup("mystery")
	assert.False(t, ok)
}

func TestLookup_ReturnsCopies(t *testing.T) {
	desc, ok := Lookup("openai")
	require.True(t, ok)
	desc.Models[0] = "tampered"

	again, _ := Lookup("openai")
	assert.Equal(t, "gpt-4o", again.Models[0], "registry must not be mutable through Lookup")
}

func TestOllama_NoCredential(t *testing.T) {
	desc, ok := Lookup("ollama")
	require.True(t, ok)
	assert.False(t, desc.RequiresCredential())
	assert.NoError(t, ValidateCredential(desc, ""))
}

func TestVariantSelection(t *testing.T) {
	tests := map[string]string{
		"openai":    "OpenAI",
		"anthropic": "Anthropic",
		"google":    "Google",
		"ollama":    "Ollama",
		"deepseek":  "deepseek",
		"xai":       "xai",
	}
	for id, label := range tests {
		assert.Equal(t, label, variantFor(id).label(), "variant for %s", id)
	}
}
