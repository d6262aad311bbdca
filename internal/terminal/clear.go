// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package terminal holds small terminal manipulation helpers.
package terminal

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

const fallbackWidth = 80

// ClearPreviousLines erases previously printed input from the terminal,
// taking line wrapping at the current width into account. pgscope uses it
// to scrub prompts that may contain credentials out of the scrollback.
func ClearPreviousLines(textLength int) {
	width := fallbackWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	// Wrapped line count, plus the line the cursor landed on after Enter.
	wrapped := (textLength + width - 1) / width
	if wrapped < 1 {
		wrapped = 1
	}

	for i := 0; i <= wrapped; i++ {
		fmt.Print("\r\x1b[2K")
		if i < wrapped {
			fmt.Print("\x1b[1A")
		}
	}
}
