package ui

import (
	"os"

	"golang.org/x/term"
)

// Mode represents the interaction mode of a run.
type Mode int

const (
	// ModeNonInteractive is used for cron, CI and piped input.
	ModeNonInteractive Mode = iota
	// ModeInteractive is used when an operator is at the terminal.
	ModeInteractive
)

// DetectMode reports ModeNonInteractive when any of these hold:
//   - TRANSITLOAD_NON_INTERACTIVE=1
//   - CI is set
//   - stdin or stderr is not a terminal (prompts go to stderr)
func DetectMode() Mode {
	if os.Getenv("TRANSITLOAD_NON_INTERACTIVE") == "1" {
		return ModeNonInteractive
	}
	if os.Getenv("CI") != "" {
		return ModeNonInteractive
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ModeNonInteractive
	}
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return ModeNonInteractive
	}
	return ModeInteractive
}

// IsInteractive returns true if running in interactive mode.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}
