// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// View selects which part of the current artifact set is displayed.
type View string

const (
	View3D           View = "3d"
	ViewDiagram      View = "diagram"
	ViewCode         View = "code"
	ViewInstructions View = "instructions"
)

// DefaultView is used when no view has been persisted.
const DefaultView = ViewInstructions

// Views lists every view in display order.
var Views = []View{View3D, ViewDiagram, ViewCode, ViewInstructions}

// ParseView parses a view name (case-insensitive).
func ParseView(s string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Views {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q (want one of 3d, diagram, code, instructions)", s)
}

// Kinds returns the artifact kinds shown in this view. The instructions view
// shows documentation text and the raw reply.
func (v View) Kinds() []Kind {
	switch v {
	case View3D:
		return []Kind{KindModel3D}
	case ViewDiagram:
		return []Kind{KindDiagram}
	case ViewCode:
		return []Kind{KindCode}
	default:
		return []Kind{KindText}
	}
}
