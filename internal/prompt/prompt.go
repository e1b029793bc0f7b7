// Package prompt asks the grader for comments, grades and confirmations.
//
// Two implementations are provided: Line reads plain lines from any reader
// and suits pipes and scripted input; TUI draws a bubbletea text input when
// stdin is an interactive terminal.
package prompt

import (
	"context"
	"errors"
	"strings"
)

// ErrInterrupted is returned when the operator aborts a prompt (Ctrl+C or Esc).
var ErrInterrupted = errors.New("prompt interrupted")

// Prompter is the operator input boundary used by the grader.
type Prompter interface {
	// Text shows label and returns the operator's answer without the line ending.
	Text(ctx context.Context, label string) (string, error)
	// Confirm asks a yes/no question. A blank answer returns def.
	Confirm(ctx context.Context, label string, def bool) (bool, error)
}

// parseConfirm treats any answer starting with "y" as yes and anything else
// non-blank as no.
func parseConfirm(answer string, def bool) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer == "" {
		return def
	}
	return strings.HasPrefix(answer, "y")
}
