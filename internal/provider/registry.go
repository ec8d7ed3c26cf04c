// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

// =============================================================================
// PROVIDER DESCRIPTORS
// =============================================================================

// Descriptor describes one chat-completion provider. Descriptors are defined
// once at startup and never mutated.
type Descriptor struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	CredentialHint string   `json:"credential_hint"`
	BaseURL        string   `json:"base_url,omitempty"`
	Models         []string `json:"models"`
	HelpURL        string   `json:"help_url,omitempty"`
}

// RequiresCredential reports whether calls to this provider need an API key.
// The local Ollama daemon is the only provider that does not.
func (d Descriptor) RequiresCredential() bool {
	return d.ID != IDOllama
}

// DefaultModel returns the first listed model, or "" when none are listed.
func (d Descriptor) DefaultModel() string {
	if len(d.Models) == 0 {
		return ""
	}
	return d.Models[0]
}

// HasModel reports whether name is one of the listed models.
func (d Descriptor) HasModel(name string) bool {
	for _, m := range d.Models {
		if m == name {
			return true
		}
	}
	return false
}

// Known provider identifiers.
const (
	IDOpenAI    = "openai"
	IDAnthropic = "anthropic"
	IDGoogle    = "google"
	IDOllama    = "ollama"
	IDDeepSeek  = "deepseek"
	IDXAI       = "xai"
)

// registry is the ordered provider table.
var registry = []Descriptor{
	{
		ID:             IDOpenAI,
		Name:           "OpenAI",
		CredentialHint: "sk-...",
		BaseURL:        "https://api.openai.com/v1/chat/completions",
		Models:         []string{"gpt-4o", "gpt-4-turbo", "gpt-3.5-turbo"},
		HelpURL:        "https://platform.openai.com/api-keys",
	},
	{
		ID:             IDAnthropic,
		Name:           "Anthropic",
		CredentialHint: "sk-ant-...",
		BaseURL:        "https://api.anthropic.com/v1/messages",
		Models:         []string{"claude-3-5-sonnet", "claude-3-opus", "claude-3-haiku"},
		HelpURL:        "https://console.anthropic.com/settings/keys",
	},
	{
		ID:             IDGoogle,
		Name:           "Google AI",
		CredentialHint: "AIza...",
		BaseURL:        "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent",
		Models:         []string{"gemini-pro", "gemini-pro-vision"},
		HelpURL:        "https://aistudio.google.com/app/apikey",
	},
	{
		ID:             IDOllama,
		Name:           "Ollama",
		CredentialHint: "any",
		BaseURL:        "http://localhost:11434",
		Models:         []string{"llama2", "codellama", "mistral", "neural"},
		HelpURL:        "https://github.com/jmorganca/ollama",
	},
	{
		ID:             IDDeepSeek,
		Name:           "DeepSeek",
		CredentialHint: "sk-...",
		BaseURL:        "https://api.deepseek.com/v1/chat/completions",
		Models:         []string{"deepseek-chat", "deepseek-coder"},
		HelpURL:        "https://platform.deepseek.com/",
	},
	{
		ID:             IDXAI,
		Name:           "xAI",
		CredentialHint: "xai-...",
		BaseURL:        "https://api.x.ai/v1/chat/completions",
		Models:         []string{"grok-beta"},
		HelpURL:        "https://x.ai/",
	},
}

// =============================================================================
// LOOKUP
// =============================================================================

// Lookup returns the descriptor registered under id.
func Lookup(id string) (Descriptor, bool) {
	for _, d := range registry {
		if d.ID == id {
			return d.clone(), true
		}
	}
	return Descriptor{}, false
}

// All returns every registered descriptor in display order.
func All() []Descriptor {
	out := make([]Descriptor, len(registry))
	for i, d := range registry {
		out[i] = d.clone()
	}
	return out
}

// IDs returns the registered provider identifiers in display order.
func IDs() []string {
	ids := make([]string, len(registry))
	for i, d := range registry {
		ids[i] = d.ID
	}
	return ids
}

// clone copies the model slice so callers cannot mutate the registry.
func (d Descriptor) clone() Descriptor {
	d.Models = append([]string(nil), d.Models...)
	return d
}
