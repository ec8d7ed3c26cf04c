// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - What the terminal can do: TTY checks, width, color and
// hidden input for API keys.

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY AND WIDTH
// =============================================================================

const (
	fallbackWidth = 80
	narrowestWrap = 40
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IsTTY reports whether stdin is interactive.
func IsTTY() bool { return isTerminal(os.Stdin) }

// GetTerminalWidth is the stdout width in columns, never below 40. When
// stdout is not a terminal it is 80.
func GetTerminalWidth() int {
	cols, _, err := term.GetSize(int(os.Stdout.Fd()))
	switch {
	case err != nil, cols <= 0:
		return fallbackWidth
	case cols < narrowestWrap:
		return narrowestWrap
	}
	return cols
}

// WrapText breaks each line of text at word boundaries so that it fits in
// maxWidth display columns (two columns of margin are kept above 10).
// A maxWidth of zero means the terminal width.
func WrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = GetTerminalWidth()
	}
	if maxWidth > 10 {
		maxWidth -= 2
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if runewidth.StringWidth(line) > maxWidth {
			lines[i] = wrapLine(line, maxWidth)
		}
	}
	return strings.Join(lines, "\n")
}

func wrapLine(line string, limit int) string {
	var out []string
	var cur []string
	used := 0
	for _, word := range strings.Fields(line) {
		w := runewidth.StringWidth(word)
		if len(cur) > 0 && used+1+w > limit {
			out = append(out, strings.Join(cur, " "))
			cur, used = nil, 0
		}
		if len(cur) > 0 {
			used++
		}
		cur = append(cur, word)
		used += w
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return strings.Join(out, "\n")
}

// =============================================================================
// COLOR
// =============================================================================

// colorState is 0 until detected, then colorOn or colorOff.
var colorState atomic.Int32

const (
	colorOn  int32 = 1
	colorOff int32 = 2
)

// ColorsEnabled follows NO_COLOR (https://no-color.org/), then FORCE_COLOR,
// then whether stdout is a terminal. The answer is computed once.
func ColorsEnabled() bool {
	if s := colorState.Load(); s != 0 {
		return s == colorOn
	}
	state := colorOff
	if os.Getenv("NO_COLOR") == "" && (os.Getenv("FORCE_COLOR") != "" || isTerminal(os.Stdout)) {
		state = colorOn
	}
	colorState.CompareAndSwap(0, state)
	return colorState.Load() == colorOn
}

// ForceColorsEnabled pins the color decision. Used by tests.
func ForceColorsEnabled(enabled bool) {
	if enabled {
		colorState.Store(colorOn)
	} else {
		colorState.Store(colorOff)
	}
}

// GetColorProfile is termenv's stdout profile, or Ascii with colors off.
func GetColorProfile() termenv.Profile {
	if ColorsEnabled() {
		return termenv.ColorProfile()
	}
	return termenv.Ascii
}

// =============================================================================
// INPUT
// =============================================================================

var errNoTerminal = errors.New("stdin is not a terminal; pass the key as an argument or pipe it with --stdin")

// ReadSecret shows prompt on w and reads one line from the terminal with
// echo turned off.
func ReadSecret(w io.Writer, prompt string) (string, error) {
	if !IsTTY() {
		return "", errNoTerminal
	}
	fmt.Fprint(w, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// ReadLine returns the first line of r, trimmed. A missing newline is fine.
func ReadLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
