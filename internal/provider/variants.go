// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/jeranaias/protoforge/internal/model"
)

// =============================================================================
// VARIANT INTERFACE
// =============================================================================

// variant maps turns onto one vendor's request schema and pulls the reply
// text back out of its response. Exactly one variant is chosen per Adapter.
type variant interface {
	// label names the vendor in errors and logs.
	label() string
	// defaultEndpoint is used when neither the descriptor nor an option sets one.
	defaultEndpoint() string
	// defaultModel is sent when no model override is given.
	defaultModel() string
	// endpoint turns the configured base into the request URL.
	endpoint(base, credential string) (string, error)
	// authorize attaches credentials to the request.
	authorize(req *http.Request, credential string)
	// buildRequest returns the JSON body for turns.
	buildRequest(turns []Turn, model string) any
	// errorMessage extracts the vendor's message from a non-2xx body.
	errorMessage(body []byte) string
	// extractReply pulls the reply text from a 2xx body.
	extractReply(body []byte) (string, error)
}

// variantFor selects the variant for a provider identifier.
func variantFor(id string) variant {
	switch id {
	case IDOpenAI:
		return openAIVariant{}
	case IDAnthropic:
		return anthropicVariant{}
	case IDGoogle:
		return googleVariant{}
	case IDOllama:
		return ollamaVariant{}
	default:
		return genericVariant{name: id}
	}
}

// errMissingField marks a reply path that was absent from the body.
var errMissingField = errors.New("reply field missing")

// vendorErrorMessage reads {"error":{"message":...}} or returns fallback.
func vendorErrorMessage(body []byte, fallback string) string {
	var env vendorError
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return fallback
}

// =============================================================================
// VARIANT A: OPENAI
// =============================================================================

// openAIVariant keeps the system turn inside a flat role/content array.
type openAIVariant struct{}

func (openAIVariant) label() string           { return "OpenAI" }
func (openAIVariant) defaultModel() string    { return "gpt-4o" }
func (openAIVariant) defaultEndpoint() string { return "https://api.openai.com/v1/chat/completions" }

func (openAIVariant) endpoint(base, _ string) (string, error) {
	return base, nil
}

func (openAIVariant) authorize(req *http.Request, credential string) {
	req.Header.Set("Authorization", "Bearer "+credential)
}

func (openAIVariant) buildRequest(turns []Turn, model string) any {
	return openAIRequest{
		Model:       model,
		Messages:    turns,
		Temperature: 0.7,
	}
}

func (openAIVariant) errorMessage(body []byte) string {
	return vendorErrorMessage(body, "OpenAI API error")
}

func (openAIVariant) extractReply(body []byte) (string, error) {
	var resp openAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return "", errMissingField
	}
	return *resp.Choices[0].Message.Content, nil
}

// =============================================================================
// VARIANT B: ANTHROPIC
// =============================================================================

// anthropicVariant moves the system turn into a dedicated field.
type anthropicVariant struct{}

// anthropicVersion is the API version header value.
const anthropicVersion = "2023-06-01"

func (anthropicVariant) label() string           { return "Anthropic" }
func (anthropicVariant) defaultModel() string    { return "claude-3-5-sonnet-20241022" }
func (anthropicVariant) defaultEndpoint() string { return "https://api.anthropic.com/v1/messages" }

func (anthropicVariant) endpoint(base, _ string) (string, error) {
	return base, nil
}

func (anthropicVariant) authorize(req *http.Request, credential string) {
	req.Header.Set("x-api-key", credential)
	req.Header.Set("anthropic-version", anthropicVersion)
}

func (anthropicVariant) buildRequest(turns []Turn, model string) any {
	system, rest := splitSystem(turns)
	return anthropicRequest{
		Model:     model,
		MaxTokens: 4096,
		System:    system,
		Messages:  rest,
	}
}

func (anthropicVariant) errorMessage(body []byte) string {
	return vendorErrorMessage(body, "Anthropic API error")
}

func (anthropicVariant) extractReply(body []byte) (string, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == nil {
		return "", errMissingField
	}
	return *resp.Content[0].Text, nil
}

// =============================================================================
// VARIANT C: GOOGLE
// =============================================================================

// googleVariant sends role/parts contents plus a separate system instruction.
// The key travels in the query string; no auth header is set.
type googleVariant struct{}

func (googleVariant) label() string        { return "Google" }
func (googleVariant) defaultModel() string { return "" }
func (googleVariant) defaultEndpoint() string {
	return "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent"
}

func (googleVariant) endpoint(base, credential string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("key", credential)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (googleVariant) authorize(*http.Request, string) {}

func (googleVariant) buildRequest(turns []Turn, _ string) any {
	system, rest := splitSystem(turns)
	contents := make([]googleContent, 0, len(rest))
	for _, t := range rest {
		contents = append(contents, googleContent{
			Role:  googleRole(t.Role),
			Parts: []googlePart{{Text: t.Content}},
		})
	}
	return googleRequest{
		Contents:          contents,
		SystemInstruction: googleContent{Parts: []googlePart{{Text: system}}},
		GenerationConfig: googleGenerationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 4096,
		},
	}
}

// googleRole maps roles onto Gemini's vocabulary, which calls the assistant "model".
func googleRole(r model.Role) string {
	if r == model.RoleAssistant {
		return "model"
	}
	return string(r)
}

func (googleVariant) errorMessage(body []byte) string {
	return vendorErrorMessage(body, "Google API error")
}

func (googleVariant) extractReply(body []byte) (string, error) {
	var resp googleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 ||
		resp.Candidates[0].Content.Parts[0].Text == nil {
		return "", errMissingField
	}
	return *resp.Candidates[0].Content.Parts[0].Text, nil
}

// =============================================================================
// VARIANT D: OLLAMA (LOCAL DAEMON)
// =============================================================================

// ollamaVariant talks to a local daemon without authentication.
type ollamaVariant struct{}

func (ollamaVariant) label() string           { return "Ollama" }
func (ollamaVariant) defaultModel() string    { return "llama2" }
func (ollamaVariant) defaultEndpoint() string { return "http://localhost:11434" }

func (ollamaVariant) endpoint(base, _ string) (string, error) {
	return strings.TrimRight(base, "/") + "/api/chat", nil
}

func (ollamaVariant) authorize(*http.Request, string) {}

func (ollamaVariant) buildRequest(turns []Turn, model string) any {
	return ollamaRequest{
		Model:    model,
		Messages: turns,
		Stream:   false,
	}
}

// errorMessage prefers the daemon's {"error":...} text, then the raw body.
func (ollamaVariant) errorMessage(body []byte) string {
	var oe ollamaError
	if err := json.Unmarshal(body, &oe); err == nil && oe.Error != "" {
		return oe.Error
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return "Ollama API error"
}

func (ollamaVariant) extractReply(body []byte) (string, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if resp.Message == nil || resp.Message.Content == nil {
		return "", errMissingField
	}
	return *resp.Message.Content, nil
}

// =============================================================================
// VARIANT E: GENERIC BEARER ENDPOINT
// =============================================================================

// genericVariant serves any other provider: a bearer-token POST of the
// messages array, accepting an OpenAI-shaped or single-field reply.
type genericVariant struct {
	name string
}

func (v genericVariant) label() string {
	if v.name == "" {
		return "provider"
	}
	return v.name
}

func (genericVariant) defaultModel() string    { return "" }
func (genericVariant) defaultEndpoint() string { return "" }

func (genericVariant) endpoint(base, _ string) (string, error) {
	return base, nil
}

func (genericVariant) authorize(req *http.Request, credential string) {
	req.Header.Set("Authorization", "Bearer "+credential)
}

func (genericVariant) buildRequest(turns []Turn, _ string) any {
	return genericRequest{Messages: turns}
}

func (genericVariant) errorMessage([]byte) string {
	return "API request failed"
}

// extractReply tries choices[0].message.content, then a top-level string
// "content", and finally returns the whole body as compact JSON.
func (genericVariant) extractReply(body []byte) (string, error) {
	if !json.Valid(body) {
		return "", errors.New("body is not valid JSON")
	}

	var oa openAIResponse
	if err := json.Unmarshal(body, &oa); err == nil && len(oa.Choices) > 0 {
		if c := oa.Choices[0].Message.Content; c != nil && *c != "" {
			return *c, nil
		}
	}

	var single struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(body, &single); err == nil && len(single.Content) > 0 {
		var s string
		if err := json.Unmarshal(single.Content, &s); err == nil && s != "" {
			return s, nil
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return "", err
	}
	return buf.String(), nil
}
