// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package generator

import (
	"encoding/json"
	"strings"

	"github.com/jeranaias/protoforge/internal/model"
	"github.com/jeranaias/protoforge/internal/util"
)

// =============================================================================
// PROJECT TYPES
// =============================================================================

// ProjectType names a starter project template.
type ProjectType string

const (
	ProjectWeb      ProjectType = "web"
	ProjectHardware ProjectType = "hardware"
	ProjectMobile   ProjectType = "mobile"
	ProjectAPI      ProjectType = "api"
)

// ScaffoldFile is one generated starter file.
type ScaffoldFile struct {
	Name     string     `json:"name"`
	Kind     model.Kind `json:"type"`
	Language string     `json:"language,omitempty"`
	Content  string     `json:"content"`
}

// ProjectTypes returns the templates a description selects. Several may
// apply; web is used when nothing else matches.
func ProjectTypes(description string) []ProjectType {
	desc := strings.ToLower(description)
	isWeb := containsAny(desc, "web", "website", "app")
	isHardware := containsAny(desc, "hardware", "circuit", "arduino", "raspberry")
	isMobile := containsAny(desc, "mobile", "ios", "android")
	isAPI := containsAny(desc, "api", "backend", "server")

	var types []ProjectType
	if isWeb || (!isHardware && !isMobile && !isAPI) {
		types = append(types, ProjectWeb)
	}
	if isHardware {
		types = append(types, ProjectHardware)
	}
	if isMobile {
		types = append(types, ProjectMobile)
	}
	if isAPI {
		types = append(types, ProjectAPI)
	}
	return types
}

// Scaffold generates starter files for every matching project type followed
// by a README that lists them.
func Scaffold(description string) []ScaffoldFile {
	var files []ScaffoldFile
	for _, t := range ProjectTypes(description) {
		switch t {
		case ProjectWeb:
			files = append(files, webProject(description)...)
		case ProjectHardware:
			files = append(files, hardwareProject(description)...)
		case ProjectMobile:
			files = append(files, mobileProject(description)...)
		case ProjectAPI:
			files = append(files, apiProject(description)...)
		}
	}
	return append(files, readme(description, files))
}

// Artifact converts f into an artifact with a fresh ID.
func (f ScaffoldFile) Artifact() model.Artifact {
	return model.NewArtifact(f.Name, f.Kind, f.Content, f.Language)
}

// =============================================================================
// TEMPLATES
// =============================================================================

func webProject(description string) []ScaffoldFile {
	return []ScaffoldFile{
		{Name: "index.html", Kind: model.KindCode, Language: "html", Content: `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>My Project</title>
    <link rel="stylesheet" href="styles.css">
</head>
<body>
    <div id="app">
        <header>
            <h1>` + util.TruncateRunesNoEllipsis(description, 30) + `</h1>
        </header>
        <main>
            <div class="content">
                <!-- Your content here -->
            </div>
        </main>
    </div>
    <script src="app.js"></script>
</body>
</html>`},
		{Name: "styles.css", Kind: model.KindCode, Language: "css", Content: webStyles},
		{Name: "app.js", Kind: model.KindCode, Language: "javascript", Content: webApp},
		{Name: "package.json", Kind: model.KindCode, Language: "json", Content: `{
  "name": "my-project",
  "version": "1.0.0",
  "description": "` + util.TruncateRunesNoEllipsis(description, 100) + `",
  "main": "app.js",
  "scripts": {
    "start": "npx serve .",
    "dev": "npx serve . --port 3000"
  },
  "keywords": [],
  "author": "",
  "license": "MIT"
}`},
	}
}

const webStyles = `* {
    margin: 0;
    padding: 0;
    box-sizing: border-box;
}

body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    background: #0f172a;
    color: #f8fafc;
    min-height: 100vh;
}

#app {
    max-width: 1200px;
    margin: 0 auto;
    padding: 2rem;
}

header {
    text-align: center;
    margin-bottom: 2rem;
}

header h1 {
    font-size: 2.5rem;
    background: linear-gradient(135deg, #0ea5e9, #3b82f6);
    -webkit-background-clip: text;
    -webkit-text-fill-color: transparent;
}

.content {
    background: #1e293b;
    border-radius: 1rem;
    padding: 2rem;
    box-shadow: 0 4px 6px -1px rgba(0, 0, 0, 0.3);
}`

const webApp = `// Main application logic
document.addEventListener('DOMContentLoaded', () => {
    console.log('App initialized');
    
    // Add your application logic here
    const app = {
        init: () => {
            app.setupEventListeners();
        },
        
        setupEventListeners: () => {
            // Set up click handlers, forms, etc.
        },
        
        // Add more methods as needed
    };
    
    app.init();
});`

func hardwareProject(description string) []ScaffoldFile {
	return []ScaffoldFile{
		{Name: "main.ino", Kind: model.KindCode, Language: "cpp", Content: `// Arduino main code for: ` + util.TruncateRunesNoEllipsis(description, 50) + `
#include <Arduino.h>

// Pin definitions
const int LED_PIN = 13;
const int BUTTON_PIN = 2;

// Variables
bool ledState = false;

void setup() {
    pinMode(LED_PIN, OUTPUT);
    pinMode(BUTTON_PIN, INPUT_PULLUP);
    
    Serial.begin(9600);
    Serial.println("System initialized");
}

void loop() {
    // Read button state
    if (digitalRead(BUTTON_PIN) == LOW) {
        ledState = !ledState;
        digitalWrite(LED_PIN, ledState ? HIGH : LOW);
        delay(50); // Debounce
    }
    
    // Add your logic here
    
    delay(10);
}`},
		{Name: "circuit.json", Kind: model.KindDiagram, Content: circuitJSON()},
		{Name: "README.md", Kind: model.KindText, Content: `# Hardware Project

## Components Needed
- Arduino Uno or compatible
- LED (any color)
- 220Ω Resistor
- Push Button
- Jumper wires

## Circuit Diagram
See circuit.json for detailed connections.

## How to Use
1. Upload main.ino to your Arduino
2. Connect components as shown
3. Press button to toggle LED`},
	}
}

// circuitComponent and circuitConnection describe the starter wiring.
type circuitComponent struct {
	Type  string   `json:"type"`
	Pins  []string `json:"pins,omitempty"`
	Value string   `json:"value,omitempty"`
}

type circuitConnection struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type circuitNetlist struct {
	Components  []circuitComponent  `json:"components"`
	Connections []circuitConnection `json:"connections"`
}

func circuitJSON() string {
	netlist := circuitNetlist{
		Components: []circuitComponent{
			{Type: "Arduino", Pins: []string{"VCC", "GND", "D13", "D2"}},
			{Type: "LED", Pins: []string{"anode", "cathode"}},
			{Type: "Resistor", Value: "220Ω"},
			{Type: "Button", Pins: []string{"NO", "NC", "COM"}},
		},
		Connections: []circuitConnection{
			{From: "Arduino.D13", To: "LED.anode"},
			{From: "LED.cathode", To: "Resistor.pin1"},
			{From: "Resistor.pin2", To: "Arduino.GND"},
			{From: "Arduino.D2", To: "Button.COM"},
			{From: "Button.NO", To: "Arduino.VCC"},
		},
	}
	data, err := json.MarshalIndent(netlist, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func mobileProject(description string) []ScaffoldFile {
	return []ScaffoldFile{
		{Name: "App.tsx", Kind: model.KindCode, Language: "typescript", Content: `import React from 'react';
import { View, Text, StyleSheet, TouchableOpacity } from 'react-native';

export default function App() {
  const [count, setCount] = React.useState(0);

  return (
    <View style={styles.container}>
      <Text style={styles.title}>` + util.TruncateRunesNoEllipsis(description, 30) + `</Text>
      <Text style={styles.counter}>{count}</Text>
      <TouchableOpacity 
        style={styles.button}
        onPress={() => setCount(count + 1)}
      >
        <Text style={styles.buttonText}>Increment</Text>
      </TouchableOpacity>
    </View>
  );
}

const styles = StyleSheet.create({
  container: {
    flex: 1,
    justifyContent: 'center',
    alignItems: 'center',
    backgroundColor: '#0f172a',
  },
  title: {
    fontSize: 24,
    color: '#f8fafc',
    marginBottom: 20,
  },
  counter: {
    fontSize: 48,
    color: '#0ea5e9',
    fontWeight: 'bold',
  },
  button: {
    marginTop: 20,
    padding: 15,
    backgroundColor: '#3b82f6',
    borderRadius: 10,
  },
  buttonText: {
    color: '#fff',
    fontSize: 16,
    fontWeight: '600',
  },
});`},
		{Name: "package.json", Kind: model.KindCode, Language: "json", Content: `{
  "name": "mobile-app",
  "version": "1.0.0",
  "main": "expo/AppEntry.js",
  "scripts": {
    "start": "expo start",
    "android": "expo start --android",
    "ios": "expo start --ios"
  },
  "dependencies": {
    "expo": "~50.0.0",
    "react": "18.2.0",
    "react-native": "0.73.0"
  }
}`},
	}
}

func apiProject(description string) []ScaffoldFile {
	return []ScaffoldFile{
		{Name: "server.js", Kind: model.KindCode, Language: "javascript", Content: "const express = require('express');\n" +
			"const app = express();\n" +
			"const PORT = process.env.PORT || 3000;\n\n" +
			"app.use(express.json());\n\n" +
			"// Routes\n" +
			"app.get('/api/health', (req, res) => {\n" +
			"    res.json({ status: 'ok', timestamp: new Date().toISOString() });\n" +
			"});\n\n" +
			"// Add your routes here\n\n" +
			"app.listen(PORT, () => {\n" +
			"    console.log(`Server running on port ${PORT}`);\n" +
			"});"},
		{Name: "package.json", Kind: model.KindCode, Language: "json", Content: `{
  "name": "api-server",
  "version": "1.0.0",
  "main": "server.js",
  "scripts": {
    "start": "node server.js",
    "dev": "node server.js"
  },
  "dependencies": {
    "express": "^4.18.0"
  }
}`},
		{Name: "routes.yaml", Kind: model.KindCode, Language: "yaml", Content: `openapi: 3.0.0
info:
  title: ` + util.TruncateRunesNoEllipsis(description, 30) + `
  version: 1.0.0

paths:
  /api/health:
    get:
      summary: Health check
      responses:
        '200':
          description: OK`},
	}
}

// readme lists files and closes every scaffold.
func readme(description string, files []ScaffoldFile) ScaffoldFile {
	var list strings.Builder
	for i, f := range files {
		if i > 0 {
			list.WriteString("\n")
		}
		list.WriteString("- `" + f.Name + "`")
	}

	content := "# " + util.TruncateRunesNoEllipsis(description, 50) + `

## Description
` + description + `

## Files
` + list.String() + `

## Getting Started

### Prerequisites
- Node.js (v14 or higher)
- npm or yarn

### Installation
` + "```bash" + `
# Install dependencies
npm install

# Start the project
npm start
` + "```" + `

## Usage
Describe how to use your project here.

## License
MIT
`
	return ScaffoldFile{Name: "README.md", Kind: model.KindText, Content: content}
}
