// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// suggest.go - "Did you mean" suggestions for mistyped commands, provider
// ids and view names.
package cli

import (
	"strings"
	"unicode/utf8"
)

// validCommands lists the top-level commands and aliases.
var validCommands = []string{
	"chat", "ask", "export", "providers", "use", "key", "generate",
	"guide", "config", "status", "version", "help",
	// Aliases
	"repl", "list", "apikey", "gen", "instructions",
}

// SuggestCommand returns the closest top-level command to input, or "".
func SuggestCommand(input string) string {
	return Suggest(input, validCommands)
}

// Suggest picks the candidate nearest to input by edit distance. It returns
// "" for an exact match, for inputs shorter than two runes, and when the best
// candidate needs more edits than the input length allows (1, 2 from four
// runes, 3 past eight).
func Suggest(input string, candidates []string) string {
	input = strings.ToLower(input)
	n := utf8.RuneCountInString(input)
	if n < 2 {
		return ""
	}
	budget := 1 + btoi(n >= 4) + btoi(n > 8)

	best, bestCost := "", budget+1
	for _, c := range candidates {
		cost := editDistance(input, strings.ToLower(c))
		if cost == 0 {
			return ""
		}
		if cost < bestCost {
			best, bestCost = c, cost
		}
	}
	return best
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

// slashCommandNames lists the REPL commands.
func slashCommandNames() []string {
	names := make([]string, 0, len(slashCommands))
	for _, c := range slashCommands {
		names = append(names, c.name)
	}
	return names
}

// editDistance is the Levenshtein distance between a and b, in runes.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			up := row[j]
			sub := diag
			if ra[i-1] != rb[j-1] {
				sub++
			}
			row[j] = min(up+1, row[j-1]+1, sub)
			diag = up
		}
	}
	return row[len(rb)]
}
