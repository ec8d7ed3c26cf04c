// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Interactive yes/no and choice prompts.
//
// Both prompts read one line from in. Callers check IsTTY first; piped
// input is read the same way so the prompts can be scripted.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PromptYesNo asks question and reports whether the answer was y or yes.
// Anything else, including EOF, is no.
func PromptYesNo(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		return false
	}
	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes"
}

// PromptChoice lists options and returns the 0-based index of the chosen
// one, or -1 if the input is not a valid choice.
func PromptChoice(in io.Reader, out io.Writer, question string, options []string) int {
	fmt.Fprintln(out)
	fmt.Fprintln(out, question)
	fmt.Fprintln(out)
	for i, option := range options {
		fmt.Fprintf(out, "  %d) %s\n", i+1, option)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Enter choice (1-%d): ", len(options))

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		return -1
	}
	choice, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || choice < 1 || choice > len(options) {
		return -1
	}
	return choice - 1
}
