// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"github.com/jeranaias/protoforge/internal/model"
)

// =============================================================================
// TURNS
// =============================================================================

// Turn is one role-tagged unit of conversation sent to a provider.
type Turn struct {
	Role    model.Role `json:"role"`
	Content string     `json:"content"`
}

// SystemPrompt is the fixed instruction sent as the first turn of every call.
const SystemPrompt = `You are ProtoForge, an AI product prototyping assistant. 
You help users create product prototypes including:
- Software code and architecture
- Hardware circuit diagrams  
- 3D models for visualization
- Complete project files

When users describe a product idea, analyze what they need and generate appropriate:
1. Code files (if software/hybrid)
2. Diagrams (circuit, architecture, flowchart)
3. 3D model descriptions
4. Clear instructions

Format your response with clear sections. Include actual code, diagrams (as mermaid syntax), and 3D model parameters.`

// BuildTurns assembles the turn list for one call: the system prompt, the
// prior conversation in order, then the new user text.
func BuildTurns(systemPrompt string, history []model.Message, userText string) []Turn {
	turns := make([]Turn, 0, len(history)+2)
	if systemPrompt != "" {
		turns = append(turns, Turn{Role: model.RoleSystem, Content: systemPrompt})
	}
	for _, m := range history {
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}
	return append(turns, Turn{Role: model.RoleUser, Content: userText})
}

// splitSystem separates the first system turn from the rest. Every system
// turn is dropped from the remainder.
func splitSystem(turns []Turn) (string, []Turn) {
	var system string
	found := false
	rest := make([]Turn, 0, len(turns))
	for _, t := range turns {
		if t.Role == model.RoleSystem {
			if !found {
				system = t.Content
				found = true
			}
			continue
		}
		rest = append(rest, t)
	}
	return system, rest
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// openAIRequest is the Variant A body.
type openAIRequest struct {
	Model       string  `json:"model"`
	Messages    []Turn  `json:"messages"`
	Temperature float64 `json:"temperature"`
}

// openAIResponse covers the fields read from OpenAI-shaped replies.
type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// vendorError is the {"error":{"message":...}} envelope shared by the
// OpenAI, Anthropic and Google APIs.
type vendorError struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// anthropicRequest is the Variant B body.
type anthropicRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    string `json:"system"`
	Messages  []Turn `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	} `json:"content"`
}

// googlePart is one text part of a Gemini content entry.
type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googleGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// googleRequest is the Variant C body.
type googleRequest struct {
	Contents          []googleContent        `json:"contents"`
	SystemInstruction googleContent          `json:"systemInstruction"`
	GenerationConfig  googleGenerationConfig `json:"generationConfig"`
}

type googleResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ollamaRequest is the Variant D body.
type ollamaRequest struct {
	Model    string `json:"model"`
	Messages []Turn `json:"messages"`
	Stream   bool   `json:"stream"`
}

type ollamaResponse struct {
	Message *struct {
		Content *string `json:"content"`
	} `json:"message"`
}

// ollamaError is the error body returned by the Ollama daemon.
type ollamaError struct {
	Error string `json:"error"`
}

// genericRequest is the Variant E body.
type genericRequest struct {
	Messages []Turn `json:"messages"`
}
