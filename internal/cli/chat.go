// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat REPL.
//
// Line editing and history come from liner when stdin is a terminal;
// piped input is read line by line. Ctrl+C during a request cancels that
// request; Ctrl+C or Ctrl+D at the prompt exits.

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/peterh/liner"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/protoforge/internal/config"
	"github.com/jeranaias/protoforge/internal/model"
	"github.com/jeranaias/protoforge/internal/provider"
	"github.com/jeranaias/protoforge/internal/util"
)

// =============================================================================
// INPUT
// =============================================================================

// lineReader is the REPL's input source.
type lineReader interface {
	ReadInput(prompt string) (string, error)
	ReadSecret(prompt string) (string, error)
	Close()
}

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads the saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeSlash)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// ReadInput reads a line of input, adding non-empty lines to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	// Keys never go into history.
	if trimmed := strings.TrimSpace(input); trimmed != "" && !strings.HasPrefix(trimmed, "/key") {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// ReadSecret reads a line without echo.
func (c *ChatCLI) ReadSecret(prompt string) (string, error) {
	return c.line.PasswordPrompt(prompt)
}

// SaveHistory persists command history with 0600 permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// pipedInput reads lines from a non-terminal reader.
type pipedInput struct {
	scanner *bufio.Scanner
}

func newPipedInput(r io.Reader) *pipedInput {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &pipedInput{scanner: s}
}

func (p *pipedInput) ReadInput(string) (string, error) {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.scanner.Text(), nil
}

func (p *pipedInput) ReadSecret(prompt string) (string, error) {
	return p.ReadInput(prompt)
}

func (p *pipedInput) Close() {}

// slashCommands feeds tab completion and /help.
var slashCommands = []struct{ name, args, help string }{
	{"/help", "", "Show this help"},
	{"/provider", "[id]", "List providers or switch to one"},
	{"/model", "[name]", "Show or override the model for this session"},
	{"/key", "[key|--show]", "Set or show the API key for the current provider"},
	{"/view", "[3d|diagram|code|instructions]", "Switch view and show its contents"},
	{"/files", "", "List all generated files"},
	{"/show", "<n|name>", "Select a file and show its contents"},
	{"/save", "[n|name|all] [--dir D]", "Write files to disk"},
	{"/zip", "[--dir D]", "Write all files as protoforge_project.zip"},
	{"/export", "[md|json] [--dir D] [--open]", "Write the conversation transcript"},
	{"/clear", "", "Clear the conversation and files"},
	{"/guide", "", "Show the usage guide"},
	{"/status", "", "Show provider and key status"},
	{"/quit", "", "Exit"},
}

func completeSlash(line string) []string {
	if !strings.HasPrefix(line, "/") || strings.Contains(line, " ") {
		return nil
	}
	var out []string
	for _, c := range slashCommands {
		if strings.HasPrefix(c.name, line) {
			out = append(out, c.name)
		}
	}
	return out
}

// =============================================================================
// REPL
// =============================================================================

// Chat runs the interactive REPL until /quit, Ctrl+D or Ctrl+C at the prompt.
func (a *App) Chat() error {
	var input lineReader
	if f, ok := a.in.(*os.File); ok && f == os.Stdin && IsTTY() {
		input = NewChatCLI()
	} else {
		input = newPipedInput(a.in)
	}
	defer input.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	a.watchConfig(ctx)

	turns := &turnCanceller{}
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigChan:
				if turns.cancel() {
					fmt.Fprintln(a.errOut, "\n"+WarningStyle.Render("[Cancelled]"))
				}
			}
		}
	}()

	if !a.args.Quiet {
		a.printWelcome()
	}
	return a.repl(ctx, input, turns)
}

// repl is the read-eval loop, separated from terminal setup for tests.
func (a *App) repl(ctx context.Context, input lineReader, turns *turnCanceller) error {
	for {
		line, err := input.ReadInput(a.prompt())
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				return err
			}
			fmt.Fprintln(a.out)
			a.printGoodbye()
			return nil
		}

		line = strings.TrimSpace(norm.NFC.String(line))
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			cont, err := a.handleSlash(ctx, input, line)
			if err != nil {
				a.printError(err)
			}
			if !cont {
				a.printGoodbye()
				return nil
			}
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			a.printGoodbye()
			return nil
		}

		turnCtx, cancel := context.WithCancel(ctx)
		turns.set(cancel)
		logged, err := a.sendAndRender(turnCtx, line)
		turns.set(nil)
		cancel()
		if err != nil && !logged {
			a.printError(err)
		}
	}
}

// sendAndRender runs one turn and prints the assistant message. logged
// reports whether a message was appended; a failed turn's "Error: ..."
// message is then already on screen.
func (a *App) sendAndRender(ctx context.Context, text string) (logged bool, err error) {
	a.info("Thinking...")
	start := time.Now()
	msg, err := a.ctrl.Send(ctx, text)
	if msg.ID == "" {
		return false, err
	}
	a.logger.Printf("turn finished in %s", time.Since(start).Round(time.Millisecond))
	fmt.Fprintln(a.out)
	a.render.Message(msg)
	fmt.Fprintln(a.out)
	return true, err
}

func (a *App) prompt() string {
	id := "no provider"
	if desc, ok := a.ctrl.Provider(); ok {
		id = desc.ID
	}
	return fmt.Sprintf("protoforge (%s)> ", id)
}

// turnCanceller holds the cancel func of the request in flight.
type turnCanceller struct {
	mu sync.Mutex
	fn context.CancelFunc
}

func (t *turnCanceller) set(fn context.CancelFunc) {
	t.mu.Lock()
	t.fn = fn
	t.mu.Unlock()
}

// cancel cancels the request in flight, reporting whether there was one.
func (t *turnCanceller) cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fn == nil {
		return false
	}
	t.fn()
	t.fn = nil
	return true
}

// watchConfig reloads the config file when it changes on disk.
func (a *App) watchConfig(ctx context.Context) {
	path, err := config.ActivePath()
	if err != nil || path == "" {
		return
	}
	err = config.Watch(ctx, path, func(cfg *config.Config, err error) {
		if err != nil {
			a.warn("config reload failed: %v", err)
			return
		}
		a.applyConfig(cfg)
		a.info("Configuration reloaded from %s", path)
	})
	if err != nil {
		a.logger.Printf("config watch disabled: %v", err)
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlash runs one slash command. It returns false when the REPL
// should exit.
func (a *App) handleSlash(ctx context.Context, input lineReader, line string) (bool, error) {
	fields := strings.Fields(line)
	command := strings.ToLower(fields[0])
	p := ParseSlashArgs(fields[1:])

	switch command {
	case "/help", "/h", "/?", "/":
		a.printHelp()

	case "/quit", "/q", "/exit":
		return false, nil

	case "/clear", "/c":
		a.ctrl.Clear()
		fmt.Fprintln(a.out, SuccessStyle.Render("[Conversation cleared]"))

	case "/provider", "/providers", "/p":
		if p.First() == "" {
			return true, a.printProviders()
		}
		return true, a.Use(p.First())

	case "/model", "/m":
		if name := p.First(); name != "" {
			a.args.Model = name
		}
		fmt.Fprintf(a.out, "%s %s\n", InfoStyle.Render("[Model]"), a.currentModel())

	case "/key":
		if p.Has("show") {
			st := a.ctrl.Snapshot()
			if st.Credential == "" {
				fmt.Fprintln(a.out, DimStyle.Render("No API key set."))
			} else {
				fmt.Fprintf(a.out, "%s %s\n", InfoStyle.Render("[Key]"), util.MaskSecret(st.Credential))
			}
			return true, nil
		}
		key := p.First()
		if key == "" {
			desc, ok := a.ctrl.Provider()
			if !ok {
				return true, provider.ErrNoProvider
			}
			var err error
			key, err = input.ReadSecret(fmt.Sprintf("%s API key (%s): ", desc.Name, desc.CredentialHint))
			if err != nil {
				return true, err
			}
		}
		return true, a.storeKey(ctx, key)

	case "/view", "/v", "/tab":
		if name := p.First(); name != "" {
			v, err := model.ParseView(name)
			if err != nil {
				return true, NewValidationError("view", name, err.Error())
			}
			if err := a.ctrl.SetView(ctx, v); err != nil {
				a.warn("%v", err)
			}
		}
		a.showView()

	case "/files", "/ls":
		st := a.ctrl.Snapshot()
		a.render.ArtifactList(st.Artifacts, st.Selected)

	case "/show", "/open":
		if p.First() == "" {
			return true, ErrMissingArgument("file", "/show 1  or  /show file_1.py")
		}
		art, err := a.selectArtifact(p.First())
		if err != nil {
			return true, err
		}
		a.render.Artifact(art)

	case "/save", "/download":
		return true, a.saveFiles(p.First(), p.Value("dir"))

	case "/zip":
		return true, a.saveZip(p.Value("dir"))

	case "/export":
		format := p.First()
		if format == "" {
			format = p.Value("format", "md")
		}
		return true, a.exportTranscript(format, p.Value("dir"), p.Switch("open"))

	case "/guide", "/instructions":
		return true, a.showGuide(p.Words(0))

	case "/status", "/s":
		return true, a.printStatus()

	default:
		if suggestion := Suggest(command, slashCommandNames()); suggestion != "" {
			return true, fmt.Errorf("unknown command: %s (did you mean %s?)", command, suggestion)
		}
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
	return true, nil
}

// selectArtifact resolves a 1-based index or a name and selects it.
func (a *App) selectArtifact(ref string) (model.Artifact, error) {
	st := a.ctrl.Snapshot()
	name := ref
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(st.Artifacts) {
			return model.Artifact{}, NewNotFoundError("file", ref)
		}
		name = st.Artifacts[n-1].Name
	}
	art, ok := a.ctrl.Select(name)
	if !ok {
		return model.Artifact{}, NewNotFoundError("file", ref)
	}
	return art, nil
}

// showView prints the active view and what it contains.
func (a *App) showView() {
	st := a.ctrl.Snapshot()
	reply := ""
	if m, ok := st.LastReply(); ok {
		reply = m.Content
	}
	a.render.ViewContents(st.View, st.Visible(), reply)
}

// =============================================================================
// OUTPUT
// =============================================================================

func (a *App) printWelcome() {
	fmt.Fprintln(a.out, TitleStyle.Render("ProtoForge"))
	fmt.Fprintln(a.out, "Describe a product idea. Code, diagrams and 3D models are pulled from each reply.")
	if desc, ok := a.ctrl.Provider(); ok {
		fmt.Fprintf(a.out, "%s %s (%s)\n", RenderLabel("Provider:", 10), desc.Name, a.currentModel())
		if err := provider.ValidateCredential(desc, a.ctrl.Snapshot().Credential); err != nil {
			fmt.Fprintln(a.out, WarningStyle.Render("No API key set. Use /key to add one."))
		}
	} else {
		fmt.Fprintln(a.out, WarningStyle.Render("No provider selected. Use /provider <id> to pick one."))
	}
	fmt.Fprintln(a.out, DimStyle.Render("Type /help for commands, /guide for tips, /quit to exit."))
	fmt.Fprintln(a.out, RenderSeparatorAdaptive())
}

func (a *App) printHelp() {
	fmt.Fprintln(a.out, SectionStyle.Render("Commands"))
	for _, c := range slashCommands {
		usage := c.name
		if c.args != "" {
			usage += " " + c.args
		}
		fmt.Fprintf(a.out, "  %s %s\n", ValueStyle.Render(util.PadWidth(usage, 42)), DimStyle.Render(c.help))
	}
	fmt.Fprintln(a.out)
}

func (a *App) printGoodbye() {
	if a.args.Quiet {
		return
	}
	st := a.ctrl.Snapshot()
	fmt.Fprintf(a.out, "%s %d message(s), %d file(s)\n",
		DimStyle.Render("Session ended:"), len(st.Messages), len(st.Artifacts))
}

func (a *App) printError(err error) {
	fmt.Fprintf(a.errOut, "%s %v\n", ErrorStyle.Render("[Error]"), err)
	if hint := errorHint(err); hint != "" {
		fmt.Fprintln(a.errOut, DimStyle.Render(hint))
	}
}
