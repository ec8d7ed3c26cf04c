// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Words and flags of a REPL slash command.

package cli

import (
	"fmt"
	"strings"
)

// SlashArgs is what follows the command name on a slash-command line.
//
//	a := ParseSlashArgs([]string{"2", "--dir", "out", "--open"})
//	a.First()        // "2"
//	a.Value("dir")   // "out"
//	a.Switch("open") // true
//
// A flag followed by a word that does not start with "-" takes that word as
// its value; "--name=value" always does. "--name=true" and "--name=false"
// are switches.
type SlashArgs struct {
	words    []string
	values   map[string]string
	switches map[string]bool
}

// ParseSlashArgs splits fields into words and flags.
func ParseSlashArgs(fields []string) SlashArgs {
	a := SlashArgs{values: map[string]string{}, switches: map[string]bool{}}
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if f == "-" || !strings.HasPrefix(f, "-") {
			a.words = append(a.words, f)
			continue
		}
		name, value, hasEq := strings.Cut(strings.TrimLeft(f, "-"), "=")
		switch {
		case hasEq && (value == "true" || value == "false"):
			a.switches[name] = value == "true"
		case hasEq:
			a.values[name] = value
		case i+1 < len(fields) && !strings.HasPrefix(fields[i+1], "-"):
			i++
			a.values[name] = fields[i]
		default:
			a.switches[name] = true
		}
	}
	return a
}

// First is the first word, usually a subcommand or target.
func (a SlashArgs) First() string { return a.Word(0) }

// Word returns the i-th word or "".
func (a SlashArgs) Word(i int) string {
	if i < 0 || i >= len(a.words) {
		return ""
	}
	return a.words[i]
}

// Words returns the words from index i on, joined with spaces.
func (a SlashArgs) Words(i int) string {
	if i < 0 || i >= len(a.words) {
		return ""
	}
	return strings.Join(a.words[i:], " ")
}

// Len is the number of words.
func (a SlashArgs) Len() int { return len(a.words) }

// Value returns a flag value, or fallback when it is missing or empty.
func (a SlashArgs) Value(name string, fallback ...string) string {
	if v := a.values[name]; v != "" {
		return v
	}
	if len(fallback) > 0 {
		return fallback[0]
	}
	return ""
}

// Switch reports whether a boolean flag is on.
func (a SlashArgs) Switch(name string) bool { return a.switches[name] }

// Has reports whether the flag was given at all.
func (a SlashArgs) Has(name string) bool {
	_, v := a.values[name]
	_, s := a.switches[name]
	return v || s
}

// ParseBoolString accepts true/false, yes/no, y/n, 1/0 and on/off in any case.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on":
		return true, nil
	case "false", "no", "n", "0", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value: %s", s)
}
