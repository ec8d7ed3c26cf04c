// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generator

import (
	"strings"

	"github.com/jeranaias/protoforge/internal/util"
)

// =============================================================================
// DIAGRAM KINDS
// =============================================================================

// DiagramKind names a diagram template.
type DiagramKind string

const (
	DiagramCircuit      DiagramKind = "circuit"
	DiagramArchitecture DiagramKind = "architecture"
	DiagramFlowchart    DiagramKind = "flowchart"
	DiagramUML          DiagramKind = "uml"
)

// DiagramKinds lists the known templates.
var DiagramKinds = []DiagramKind{DiagramCircuit, DiagramArchitecture, DiagramFlowchart, DiagramUML}

// DiagramTemplate is a rendered diagram. Kind echoes the requested kind even
// when the content fell back to the flowchart template.
type DiagramTemplate struct {
	Kind    DiagramKind `json:"type"`
	Content string      `json:"content"`
}

// Mermaid returns the diagram source without the surrounding fence.
func (d DiagramTemplate) Mermaid() string {
	body := strings.TrimPrefix(d.Content, "```mermaid\n")
	return strings.TrimSuffix(body, "\n```")
}

// =============================================================================
// GENERATION
// =============================================================================

// Diagram renders the template for kind. Unknown kinds get the flowchart.
func Diagram(kind DiagramKind, description string) DiagramTemplate {
	var body string
	switch kind {
	case DiagramCircuit:
		body = circuitDiagram(description)
	case DiagramArchitecture:
		body = architectureDiagram
	case DiagramUML:
		body = umlDiagram
	default:
		body = flowchartDiagram
	}
	return DiagramTemplate{Kind: kind, Content: "```mermaid\n" + body + "\n```"}
}

// DiagramKindFor picks a template from the wording of a description.
func DiagramKindFor(description string) DiagramKind {
	desc := strings.ToLower(description)
	switch {
	case containsAny(desc, "hardware", "circuit", "arduino", "raspberry"):
		return DiagramCircuit
	case containsAny(desc, "api", "backend", "server"):
		return DiagramArchitecture
	default:
		return DiagramFlowchart
	}
}

func circuitDiagram(description string) string {
	return `circuit
    title ` + util.TruncateRunesNoEllipsis(description, 50) + `
    
    V1 [Power Source] --> R1
    R1 --> LED1
    LED1 --> GND
    
    subgraph Components
        R1 (Resistor 220Ω)
        LED1 (LED)
    end`
}

const architectureDiagram = `flowchart TD
    Client[User Client] -->|HTTP| LB[Load Balancer]
    LB -->|Requests| API[API Server]
    API -->|Read/Write| DB[(Database)]
    API -->|Cache| Redis[Redis Cache]
    API -->|Queue| MQ[Message Queue]
    MQ --> Workers[Background Workers]
    Workers -->|Process| External[External Services]
    
    style Client fill:#e1f5fe
    style API fill:#fff3e0
    style DB fill:#e8f5e9`

const flowchartDiagram = `flowchart TD
    Start([Start]) --> Process1{Input?}
    Process1 -->|Valid| Process2[Process Data]
    Process1 -->|Invalid| Error[Show Error]
    Process2 --> Decision{Success?}
    Decision -->|Yes| Output[Generate Output]
    Decision -->|No| Retry[Retry]
    Retry --> Process1
    Output --> End([End])
    Error --> End
    
    style Start fill:#0ea5e9,color:#fff
    style End fill:#0ea5e9,color:#fff
    style Output fill:#22c55e,color:#fff`

const umlDiagram = `classDiagram
    class User {
        +String name
        +String email
        +login()
        +logout()
    }
    
    class Product {
        +String id
        +String name
        +Float price
        +getDetails()
    }
    
    class Order {
        +String id
        +Date created
        +calculateTotal()
    }
    
    User "1" -- "*" Order: places
    Order "1" -- "*" Product: contains`

// containsAny reports whether s contains any of subs.
func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
