// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// =============================================================================
// HARDWARE DETECTION
// =============================================================================

// HardwareKeywords mark a prompt or reply as describing a physical product.
var HardwareKeywords = []string{
	"hardware", "device", "circuit", "physical", "robot",
	"sensor", "gadget", "product", "prototype",
}

// IsHardware reports whether any text contains a hardware keyword,
// ignoring case.
func IsHardware(texts ...string) bool {
	for _, t := range texts {
		if containsAny(strings.ToLower(t), HardwareKeywords...) {
			return true
		}
	}
	return false
}

// =============================================================================
// MODEL DESCRIPTOR
// =============================================================================

// Param is one named model parameter. Values are float64, int or string.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered parameter list. It marshals as a JSON object with
// keys in list order.
type Params []Param

// MarshalJSON writes the parameters as an object, preserving order.
func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", kv.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value stored under key.
func (p Params) Get(key string) (any, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// ModelDescriptor is a parametric description of a physical product for a
// 3D viewer.
type ModelDescriptor struct {
	Type       string `json:"type"`
	Parameters Params `json:"parameters"`
}

// JSON renders the descriptor as two-space indented JSON.
func (m ModelDescriptor) JSON() string {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		// Params only hold numbers and strings.
		return "{}"
	}
	return string(data)
}

// modelCategory maps description keywords to a descriptor.
type modelCategory struct {
	keywords []string
	model    ModelDescriptor
}

// categories are checked in order; the first match wins.
var categories = []modelCategory{
	{[]string{"robot"}, ModelDescriptor{"robot", Params{
		{"bodyWidth", 1.0}, {"bodyHeight", 1.5}, {"bodyDepth", 0.8}, {"headSize", 0.5},
		{"armLength", 0.8}, {"legHeight", 0.6}, {"wheelRadius", 0.2}, {"color", 0x3b82f6},
	}}},
	{[]string{"drone", "quadcopter"}, ModelDescriptor{"drone", Params{
		{"bodyWidth", 0.4}, {"bodyHeight", 0.15}, {"armLength", 0.6}, {"propellerRadius", 0.25},
		{"motorSize", 0.1}, {"cameraSize", 0.08}, {"color", 0x1e293b},
	}}},
	{[]string{"phone", "mobile"}, ModelDescriptor{"phone", Params{
		{"width", 0.07}, {"height", 0.15}, {"depth", 0.008}, {"screenRatio", 19.5},
		{"bezelSize", 0.003}, {"color", 0x0f172a}, {"screenColor", 0x1e293b},
	}}},
	{[]string{"laptop", "computer"}, ModelDescriptor{"laptop", Params{
		{"screenWidth", 0.35}, {"screenHeight", 0.22}, {"baseWidth", 0.35}, {"baseDepth", 0.25},
		{"thickness", 0.02}, {"hingeSize", 0.015}, {"color", 0x64748b},
	}}},
	{[]string{"speaker", "audio"}, ModelDescriptor{"speaker", Params{
		{"width", 0.2}, {"height", 0.35}, {"depth", 0.15}, {"driverRadius", 0.08},
		{"tweeterRadius", 0.03}, {"portRadius", 0.04}, {"color", 0x1e293b}, {"grilleColor", 0x334155},
	}}},
	{[]string{"watch", "wearable"}, ModelDescriptor{"watch", Params{
		{"caseSize", 0.04}, {"caseDepth", 0.012}, {"bandWidth", 0.02}, {"bandLength", 0.25},
		{"screenSize", 0.032}, {"color", 0x0f172a}, {"bandColor", 0x475569},
	}}},
	{[]string{"iot", "sensor", "device"}, ModelDescriptor{"iot_device", Params{
		{"width", 0.08}, {"height", 0.06}, {"depth", 0.03}, {"antennaLength", 0.05},
		{"ledCount", 3}, {"buttonCount", 2}, {"color", 0xf8fafc}, {"accentColor", 0x0ea5e9},
	}}},
	{[]string{"car", "vehicle"}, ModelDescriptor{"car", Params{
		{"length", 0.4}, {"width", 0.18}, {"height", 0.1}, {"wheelRadius", 0.035},
		{"wheelWidth", 0.025}, {"wheelbase", 0.22}, {"color", 0xef4444}, {"windowColor", 0x64748b},
	}}},
}

// genericModel is returned when no category matches.
var genericModel = ModelDescriptor{"generic", Params{
	{"width", 0.1}, {"height", 0.1}, {"depth", 0.1},
	{"color", 0x3b82f6}, {"accentColor", 0xffffff}, {"detailLevel", "medium"},
}}

// Model3D picks the descriptor for a description by case-insensitive
// keyword match. The returned value is a copy.
func Model3D(description string) ModelDescriptor {
	desc := strings.ToLower(description)
	for _, c := range categories {
		if containsAny(desc, c.keywords...) {
			return c.model.clone()
		}
	}
	return genericModel.clone()
}

// Model3DFor picks the descriptor for a chat turn. The prompt decides; the
// reply is consulted only when the prompt names no category, and then a
// keyword has to appear as a whole word (optionally plural), so "carefully"
// does not make a car.
func Model3DFor(prompt, reply string) ModelDescriptor {
	if m := Model3D(prompt); m.Type != genericModel.Type {
		return m
	}
	words := wordSet(reply)
	for _, c := range categories {
		for _, k := range c.keywords {
			if words[k] {
				return c.model.clone()
			}
		}
	}
	return genericModel.clone()
}

// wordSet splits text into lower-case words. Each word is also stored with
// a trailing "s" removed.
func wordSet(text string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(fields)*2)
	for _, f := range fields {
		set[f] = true
		set[strings.TrimSuffix(f, "s")] = true
	}
	return set
}

// ModelTypes lists every descriptor type in match order, ending with generic.
func ModelTypes() []string {
	types := make([]string, 0, len(categories)+1)
	for _, c := range categories {
		types = append(types, c.model.Type)
	}
	return append(types, genericModel.Type)
}

func (m ModelDescriptor) clone() ModelDescriptor {
	m.Parameters = append(Params(nil), m.Parameters...)
	return m
}
