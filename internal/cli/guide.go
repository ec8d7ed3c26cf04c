// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jeranaias/protoforge/internal/artifact"
	"github.com/jeranaias/protoforge/internal/config"
	"github.com/jeranaias/protoforge/internal/provider"
)

// GuideSection is one topic of the usage guide.
type GuideSection struct {
	Title   string
	Content string // markdown
}

// GuideSections returns the guide in display order. The provider section is
// built from the registry so it lists every supported provider.
func GuideSections() []GuideSection {
	return []GuideSection{
		{
			Title: "How to Use ProtoForge",
			Content: `1. **Select an AI provider** with ` + "`protoforge use <id>`" + ` or ` + "`/provider <id>`" + `.
2. **Enter your API key** with ` + "`protoforge key`" + ` or ` + "`/key`" + `.
3. **Describe your product.** Anything you want to build works:
   - Hardware devices (robots, IoT sensors, gadgets)
   - Software applications (websites, mobile apps, APIs)
   - Hybrid products (smart devices with apps)
4. **Inspect the generated files.** Each reply is scanned for code blocks,
   Mermaid diagrams and 3D model descriptors. Use ` + "`/files`" + `, ` + "`/show`" + ` and ` + "`/view`" + `.
5. **Save and build.** Write single files with ` + "`/save`" + ` or everything with ` + "`/zip`" + `.`,
		},
		{
			Title:   "Setting Up Your AI Provider",
			Content: providerGuide(),
		},
		{
			Title: "Writing Good Prompts",
			Content: `1. **Be specific.** "Create a smart home temperature sensor with WiFi" beats
   "make a temperature device".
2. **Include requirements:** what it does, who it is for, key features and
   any specific technologies.
3. **Hardware:** "Design an Arduino-based weather station with LCD display".
4. **Software:** "Create a REST API for a task manager with authentication".
5. **Hybrid:** "Design a fitness tracker with a mobile app and cloud sync".`,
		},
		{
			Title: "Saving Your Files",
			Content: `- ` + "`/files`" + ` lists every generated file with a number.
- ` + "`/save 2`" + ` or ` + "`/save main.ino`" + ` writes one file; ` + "`/save all`" + ` writes them all.
- ` + "`/zip`" + ` writes ` + "`protoforge_project.zip`" + ` with every file.
- ` + "`/export md`" + ` writes the conversation as Markdown (or ` + "`json`" + `).
- Add ` + "`--dir <path>`" + ` to choose the folder. The default is ` + "`storage.export_dir`" + `.

From the shell, ` + "`protoforge export --zip \"idea\"`" + ` runs one turn and saves the result.`,
		},
		{
			Title: "Viewing 3D Models and Diagrams",
			Content: `- ` + "`/view 3d`" + ` shows the 3D model descriptor (` + "`3d_model.json`" + `): a model
  type such as robot, drone, phone or speaker plus its dimensions.
  Load it in any viewer that understands the format.
- ` + "`/view diagram`" + ` shows Mermaid source. Paste it into https://mermaid.live to
  render it.
- Describe physical products specifically for the best 3D results.`,
		},
		{
			Title: "Quick Tips",
			Content: `- Be specific in your product descriptions
- Include target users and key features
- Mention specific technologies when needed
- Use ` + "`/zip`" + ` to save the complete project
- Code blocks of ` + strconv.Itoa(artifact.MinCodeLength) + ` characters or fewer are not saved as files`,
		},
	}
}

func providerGuide() string {
	var b strings.Builder
	b.WriteString("**Getting an API key:**\n\n")
	for _, d := range provider.All() {
		if !d.RequiresCredential() {
			fmt.Fprintf(&b, "- **%s** (`%s`): runs locally, no key needed. See %s\n", d.Name, d.ID, d.HelpURL)
			continue
		}
		fmt.Fprintf(&b, "- **%s** (`%s`): %s\n", d.Name, d.ID, d.HelpURL)
	}
	b.WriteString("\n**Security note:** your key is stored only in the local preference\n")
	b.WriteString("database, encrypted unless `storage.seal_credentials` is off. It is sent\n")
	b.WriteString("only to the provider you selected.")
	return b.String()
}

// GuideMarkdown renders the selected sections as one markdown document.
// topic may be empty (all sections), a 1-based number or a word from a
// section title.
func GuideMarkdown(topic string) (string, error) {
	sections := GuideSections()
	topic = strings.ToLower(strings.TrimSpace(topic))

	if topic != "" {
		var picked []GuideSection
		if n, err := strconv.Atoi(topic); err == nil {
			if n < 1 || n > len(sections) {
				return "", NewNotFoundError("guide section", topic)
			}
			picked = sections[n-1 : n]
		} else {
			for _, s := range sections {
				if strings.Contains(strings.ToLower(s.Title), topic) {
					picked = append(picked, s)
				}
			}
		}
		if len(picked) == 0 {
			return "", NewNotFoundError("guide section", topic)
		}
		sections = picked
	}

	var b strings.Builder
	b.WriteString("# Help & Guide\n\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Title, s.Content)
	}
	return b.String(), nil
}

// HandleGuide prints the usage guide.
func HandleGuide(w io.Writer, args Args) error {
	topic := args.Query
	if topic == "" && len(args.Raw) > 0 {
		topic = strings.Join(args.Raw, " ")
	}
	md, err := GuideMarkdown(topic)
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("guide", map[string]string{"markdown": md}).Write(w)
	}
	fmt.Fprint(w, NewRenderer(config.Global().UI, w).Markdown(md))
	return nil
}
