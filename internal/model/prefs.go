// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Preferences are the only session fields that survive a restart.
// Messages and artifacts are never persisted.
type Preferences struct {
	Provider   string `json:"provider"`
	Credential string `json:"apiKey"`
	View       View   `json:"activeTab"`

	// KeepStoredCredential tells the store to leave its credential alone;
	// Credential is ignored on save.
	KeepStoredCredential bool `json:"-"`
}

// Normalized returns p with an unknown or empty view replaced by DefaultView.
func (p Preferences) Normalized() Preferences {
	if v, err := ParseView(string(p.View)); err == nil {
		p.View = v
	} else {
		p.View = DefaultView
	}
	return p
}
