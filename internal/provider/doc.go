// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider holds the chat-completion provider registry and the
// adapter that speaks each vendor's REST contract.
//
// Five request shapes are supported, chosen once per Adapter:
//   - OpenAI: bearer token, flat role/content messages, choices[0].message.content
//   - Anthropic: x-api-key + version header, separate system field, content[0].text
//   - Google: key in query string, role/parts contents, candidates[0].content.parts[0].text
//   - Ollama: local daemon, no auth, /api/chat with stream=false, message.content
//   - Any other provider: bearer token, {messages}, OpenAI-shaped or single-field reply
//
// # Key Types
//
//   - Descriptor: static provider metadata (Lookup, All, IDs)
//   - Adapter: one provider binding; Complete issues a single call
//   - Turn: role + content unit sent to a provider
//   - ConfigurationError, TransportError, ProviderError, MalformedResponseError
//
// # Usage
//
//	desc, _ := provider.Lookup("anthropic")
//	adapter, err := provider.New(desc, apiKey, provider.WithTimeout(2*time.Minute))
//	if err != nil {
//	    return err // *ConfigurationError
//	}
//	turns := provider.BuildTurns(provider.SystemPrompt, history, "A smart plant pot")
//	reply, err := adapter.Complete(ctx, turns)
package provider
