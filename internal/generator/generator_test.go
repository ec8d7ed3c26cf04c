// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/protoforge/internal/model"
)

// =============================================================================
// DIAGRAMS
// =============================================================================

func TestDiagram_Kinds(t *testing.T) {
	tests := []struct {
		kind DiagramKind
		want string
	}{
		{DiagramCircuit, "circuit\n    title LED blinker"},
		{DiagramArchitecture, "Client[User Client] -->|HTTP| LB[Load Balancer]"},
		{DiagramFlowchart, "Start([Start]) --> Process1{Input?}"},
		{DiagramUML, "classDiagram"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			d := Diagram(tt.kind, "LED blinker")
			assert.Equal(t, tt.kind, d.Kind)
			assert.True(t, strings.HasPrefix(d.Content, "```mermaid\n"))
			assert.True(t, strings.HasSuffix(d.Content, "\n```"))
			assert.Contains(t, d.Content, tt.want)
		})
	}
}

func TestDiagram_UnknownFallsBackToFlowchart(t *testing.T) {
	d := Diagram("sequence", "anything")
	assert.Equal(t, DiagramKind("sequence"), d.Kind)
	assert.Equal(t, Diagram(DiagramFlowchart, "anything").Content, d.Content)
}

func TestDiagram_CircuitTitleTruncated(t *testing.T) {
	desc := strings.Repeat("x", 80)
	d := Diagram(DiagramCircuit, desc)
	assert.Contains(t, d.Content, "title "+strings.Repeat("x", 50)+"\n")
	assert.NotContains(t, d.Content, strings.Repeat("x", 51))
}

func TestDiagram_Mermaid(t *testing.T) {
	d := Diagram(DiagramUML, "")
	body := d.Mermaid()
	assert.True(t, strings.HasPrefix(body, "classDiagram"))
	assert.NotContains(t, body, "```")
}

func TestDiagramKindFor(t *testing.T) {
	assert.Equal(t, DiagramCircuit, DiagramKindFor("an Arduino plant waterer"))
	assert.Equal(t, DiagramArchitecture, DiagramKindFor("a REST backend"))
	assert.Equal(t, DiagramFlowchart, DiagramKindFor("a recipe planner"))
}

// =============================================================================
// 3D MODELS
// =============================================================================

func TestModel3D_Categories(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"a line-following Robot", "robot"},
		{"racing quadcopter", "drone"},
		{"mobile game controller", "phone"},
		{"a laptop stand", "laptop"},
		{"bluetooth audio box", "speaker"},
		{"fitness wearable", "watch"},
		{"IoT thermostat", "iot_device"},
		{"soil sensor", "iot_device"},
		{"electric vehicle charger", "car"},
		{"a paperweight", "generic"},
		{"robot car", "robot"}, // first match wins
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.want, Model3D(tt.desc).Type)
		})
	}
}

func TestModel3DFor(t *testing.T) {
	assert.Equal(t, "drone", Model3DFor("camera drone", "uses a robot arm").Type)
	assert.Equal(t, "robot", Model3DFor("something that moves", "Your robot-arm needs power").Type)
	assert.Equal(t, "car", Model3DFor("a toy", "two small cars race").Type)
	assert.Equal(t, "generic", Model3DFor("desk lamp", "wire it carefully").Type)
	assert.Equal(t, "generic", Model3DFor("", "").Type)
}

func TestModel3D_RobotJSON(t *testing.T) {
	want := `{
  "type": "robot",
  "parameters": {
    "bodyWidth": 1,
    "bodyHeight": 1.5,
    "bodyDepth": 0.8,
    "headSize": 0.5,
    "armLength": 0.8,
    "legHeight": 0.6,
    "wheelRadius": 0.2,
    "color": 3900150
  }
}`
	assert.Equal(t, want, Model3D("robot").JSON())
}

func TestModel3D_GenericParams(t *testing.T) {
	m := Model3D("")
	require.Equal(t, "generic", m.Type)

	var decoded struct {
		Type       string         `json:"type"`
		Parameters map[string]any `json:"parameters"`
	}
	require.NoError(t, json.Unmarshal([]byte(m.JSON()), &decoded))
	assert.Equal(t, "medium", decoded.Parameters["detailLevel"])
	assert.Equal(t, float64(0xffffff), decoded.Parameters["accentColor"])
	assert.Len(t, decoded.Parameters, 6)
}

func TestModel3D_ReturnsCopy(t *testing.T) {
	m := Model3D("robot")
	m.Parameters[0].Value = 99.0

	v, ok := Model3D("robot").Parameters.Get("bodyWidth")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestModelTypes(t *testing.T) {
	assert.Equal(t, []string{"robot", "drone", "phone", "laptop", "speaker", "watch", "iot_device", "car", "generic"}, ModelTypes())
}

func TestIsHardware(t *testing.T) {
	assert.True(t, IsHardware("A smart SENSOR"))
	assert.True(t, IsHardware("", "build a prototype"))
	assert.False(t, IsHardware("a todo list", "with tags"))
}

// =============================================================================
// SCAFFOLD
// =============================================================================

func names(files []ScaffoldFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestScaffold_ProjectTypes(t *testing.T) {
	tests := []struct {
		desc string
		want []string
	}{
		{"a recipe planner", []string{"index.html", "styles.css", "app.js", "package.json", "README.md"}},
		{"arduino circuit", []string{"main.ino", "circuit.json", "README.md", "README.md"}},
		{"android tracker", []string{"App.tsx", "package.json", "README.md"}},
		{"REST backend", []string{"server.js", "package.json", "routes.yaml", "README.md"}},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Scaffold(tt.desc)))
		})
	}
}

func TestScaffold_Combined(t *testing.T) {
	// "app" selects web, "api" selects the server template.
	types := ProjectTypes("web app with an api")
	assert.Equal(t, []ProjectType{ProjectWeb, ProjectAPI}, types)
}

func TestScaffold_ReadmeListsFiles(t *testing.T) {
	files := Scaffold("REST backend for todos")
	readme := files[len(files)-1]

	assert.Equal(t, model.KindText, readme.Kind)
	assert.True(t, strings.HasPrefix(readme.Content, "# REST backend for todos\n"))
	assert.Contains(t, readme.Content, "- `server.js`\n- `package.json`\n- `routes.yaml`\n")
	assert.Contains(t, readme.Content, "```bash\n# Install dependencies")
}

func TestScaffold_Truncation(t *testing.T) {
	desc := strings.Repeat("é", 120)
	files := Scaffold(desc)

	html := files[0]
	assert.Contains(t, html.Content, "<h1>"+strings.Repeat("é", 30)+"</h1>")

	pkg := files[3]
	assert.Contains(t, pkg.Content, `"description": "`+strings.Repeat("é", 100)+`"`)
}

func TestScaffold_CircuitJSON(t *testing.T) {
	files := Scaffold("hardware blinker")
	circuit := files[1]
	require.Equal(t, "circuit.json", circuit.Name)
	assert.Equal(t, model.KindDiagram, circuit.Kind)

	var netlist circuitNetlist
	require.NoError(t, json.Unmarshal([]byte(circuit.Content), &netlist))
	assert.Len(t, netlist.Components, 4)
	assert.Len(t, netlist.Connections, 5)
	assert.Equal(t, "220Ω", netlist.Components[2].Value)
}

// =============================================================================
// FALLBACK
// =============================================================================

func TestFallback_Software(t *testing.T) {
	arts := Fallback("a recipe planner")

	require.Len(t, arts, 6)
	last := arts[len(arts)-1]
	assert.Equal(t, "diagram.mmd", last.Name)
	assert.Equal(t, model.KindDiagram, last.Kind)
	assert.True(t, strings.HasPrefix(last.Content, "flowchart TD"))
	assert.Empty(t, model.FilterByKind(arts, model.KindModel3D))
}

func TestFallback_Hardware(t *testing.T) {
	arts := Fallback("a hardware robot arm")

	models := model.FilterByKind(arts, model.KindModel3D)
	require.Len(t, models, 1)
	assert.Equal(t, Model3DFileName, models[0].Name)
	assert.Contains(t, models[0].Content, `"type": "robot"`)

	d, ok := model.FindByName(arts, "diagram.mmd")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(d.Content, "circuit"))
}

func TestFallback_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range Fallback("hardware web api") {
		assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
		seen[a.ID] = true
	}
}
