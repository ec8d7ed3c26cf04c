// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for protoforge.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdAsk
	CmdProviders
	CmdUse
	CmdKey
	CmdGenerate
	CmdExport
	CmdGuide
	CmdConfig
	CmdStatus
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandNames = map[Command]string{
	CmdChat:      "chat",
	CmdAsk:       "ask",
	CmdProviders: "providers",
	CmdUse:       "use",
	CmdKey:       "key",
	CmdGenerate:  "generate",
	CmdExport:    "export",
	CmdGuide:     "guide",
	CmdConfig:    "config",
	CmdStatus:    "status",
	CmdVersion:   "version",
	CmdHelp:      "help",
	CmdUnknown:   "unknown",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet    bool
	Verbose  bool
	JSON     bool
	Provider string // session-only provider override, not persisted
	Model    string

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args (remaining after the command name)
	Raw []string

	// Options holds command-specific named flags (--dir, --zip, --stdin, ...).
	Options map[string]string
}

// Option returns a command option, or "".
func (a Args) Option(name string) string {
	return a.Options[name]
}

// BoolOption reports whether a boolean command option was given.
func (a Args) BoolOption(name string) bool {
	v, ok := a.Options[name]
	if !ok {
		return false
	}
	b, err := ParseBoolString(v)
	return err == nil && b
}

const usageText = `protoforge - AI product prototyping from the terminal

Describe a product idea and chat with the AI provider of your choice.
ProtoForge pulls code files, Mermaid diagrams and 3D model descriptors out
of each reply so you can inspect and save them.

Usage:
  protoforge                        Start interactive chat (default)
  protoforge chat                   Start interactive chat
  protoforge ask "idea"             One turn: print the reply and its files
  protoforge providers              List supported AI providers
  protoforge use <id>               Select a provider
  protoforge key [--stdin]          Set the API key for the current provider
  protoforge generate <kind> "idea" Run a template generator offline
  protoforge export [--zip] "idea"  One turn, then write the files to disk
  protoforge guide                  Show the usage guide
  protoforge status                 Show provider, key and storage status
  protoforge config [subcommand]    Configuration
  protoforge version                Show version information
  protoforge help                   Show this help

Global Flags:
  -v, --verbose                     Log provider requests to stderr
  -q, --quiet                       Minimal output
  --json                            JSON output (ask, providers, status, config, version)
  --provider ID                     Use a provider for this run only
  --model NAME                      Override the provider's model

Ask / Export Flags:
  --dir DIR                         Write files to DIR (default: storage.export_dir)
  --zip                             Bundle all files into protoforge_project.zip
  --save                            (ask) Also write the files to disk
  --view V                          (ask) Only list files for view V
  --show NAME                       (ask) Print one file
  --format md|json                  (export) Also write the transcript
  --open                            (export) Open the transcript afterwards

Generate Kinds:
  scaffold                          Project files for the description
  diagram [--kind K]                Mermaid diagram (circuit, architecture, flowchart, uml)
  model3d                           3D model descriptor JSON
  all                               Everything the template fallback would produce

Config Commands:
  protoforge config show            Show the effective configuration
  protoforge config path            Show the config file path
  protoforge config get <key>       Show one value
  protoforge config set <key> <val> Change one value and save
  protoforge config unset <key>     Clear one value and save
  protoforge config keys            List settable keys
  protoforge config init            Write a default config file
  protoforge config reset           Overwrite the config file with defaults

Examples:
  protoforge use anthropic
  protoforge key
  protoforge ask "Design an Arduino-based weather station with LCD display"
  protoforge export --zip --dir ./station "Arduino weather station"
  protoforge generate diagram --kind uml "task manager API"
  protoforge --provider ollama --model llama3.1 chat

Environment:
  PROTOFORGE_PROVIDER, PROTOFORGE_MODEL, PROTOFORGE_API_KEY,
  PROTOFORGE_OLLAMA_URL, PROTOFORGE_PASSPHRASE, NO_COLOR

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "protoforge version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses command-line arguments (without the program name) and
// returns the command and args.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdChat, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "chat", "repl":
		return CmdChat, parsed

	case "ask", "a":
		parseQueryArgs(&parsed, remaining)
		return CmdAsk, parsed

	case "export":
		parseQueryArgs(&parsed, remaining)
		return CmdExport, parsed

	case "providers", "provider", "list":
		return CmdProviders, parsed

	case "use":
		parseQueryArgs(&parsed, remaining)
		parsed.Subcommand = parsed.Query
		return CmdUse, parsed

	case "key", "apikey":
		parseQueryArgs(&parsed, remaining)
		return CmdKey, parsed

	case "generate", "gen", "g":
		parseQueryArgs(&parsed, remaining)
		if fields := strings.Fields(parsed.Query); len(fields) > 0 {
			parsed.Subcommand = strings.ToLower(fields[0])
			parsed.Query = strings.TrimSpace(strings.TrimPrefix(parsed.Query, fields[0]))
		}
		return CmdGenerate, parsed

	case "guide", "instructions":
		return CmdGuide, parsed

	case "config":
		parseConfigArgs(&parsed, remaining)
		return CmdConfig, parsed

	case "status", "s":
		return CmdStatus, parsed

	case "version", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		// A lone word close to a command name is a typo, not an idea.
		if len(remaining) == 0 {
			if suggestion := SuggestCommand(cmd); suggestion != "" {
				parsed.Subcommand = cmd
				parsed.Query = suggestion
				return CmdUnknown, parsed
			}
		}
		// A bare idea is a one-shot ask.
		parseQueryArgs(&parsed, append([]string{cmd}, remaining...))
		parsed.Query = strings.TrimSpace(parsed.Query)
		if parsed.Query == "" {
			return CmdHelp, parsed
		}
		return CmdAsk, parsed
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	parsed := Args{
		Options: make(map[string]string),
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		case "--model", "-m":
			if i+1 < len(args) {
				i++
				parsed.Model = args[i]
			}
		case "--provider", "-p":
			if i+1 < len(args) {
				i++
				parsed.Provider = strings.ToLower(args[i])
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--model="):
				parsed.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--provider="):
				parsed.Provider = strings.ToLower(strings.TrimPrefix(arg, "--provider="))
			default:
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsed
}

// valueOptions are command flags that take a value.
var valueOptions = map[string]bool{
	"dir":    true,
	"view":   true,
	"kind":   true,
	"format": true,
	"show":   true,
}

// parseQueryArgs splits command flags from the free-text query. Flags listed
// in valueOptions consume the next argument; any other flag is boolean.
// "--" ends flag parsing.
func parseQueryArgs(args *Args, remaining []string) {
	var query []string

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		if arg == "--" {
			query = append(query, remaining[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "--") || len(arg) == 2 {
			query = append(query, arg)
			continue
		}

		name := strings.TrimPrefix(arg, "--")
		if k, v, ok := strings.Cut(name, "="); ok {
			args.Options[k] = v
			continue
		}
		if valueOptions[name] && i+1 < len(remaining) {
			i++
			args.Options[name] = remaining[i]
			continue
		}
		args.Options[name] = "true"
	}

	args.Query = strings.Join(query, " ")
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = strings.ToLower(remaining[0])
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = strings.Join(remaining[2:], " ")
		}
	}
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes cmd and returns the process exit code. Errors are displayed
// on stderr (or as JSON on stdout in --json mode).
func Run(cmd Command, args Args) int {
	err := run(cmd, args)
	if err != nil {
		DisplayError(err, args.JSON)
		return GetExitCode(err)
	}
	return ExitSuccess
}

func run(cmd Command, args Args) error {
	// Commands that need no configuration or storage.
	switch cmd {
	case CmdHelp:
		PrintUsage(os.Stdout)
		return nil
	case CmdUnknown:
		return &ValidationError{
			Field:   "command",
			Value:   args.Subcommand,
			Reason:  fmt.Sprintf("unknown command (did you mean '%s'?)", args.Query),
			Example: "protoforge help",
		}
	case CmdVersion:
		return HandleVersion(os.Stdout, args)
	case CmdGuide:
		return HandleGuide(os.Stdout, args)
	case CmdGenerate:
		return HandleGenerate(os.Stdout, args)
	case CmdProviders:
		return HandleProviders(os.Stdout, args)
	case CmdConfig:
		return HandleConfig(os.Stdout, args)
	}

	app, err := NewApp(args, AppOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	switch cmd {
	case CmdChat:
		return app.Chat()
	case CmdAsk:
		return app.Ask(args.Query)
	case CmdExport:
		return app.Export(args.Query)
	case CmdUse:
		return app.Use(args.Subcommand)
	case CmdKey:
		return app.SetKey()
	case CmdStatus:
		return app.Status()
	default:
		return NewValidationError("command", cmd.String(), "unknown command")
	}
}
