// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"io"
	"os"

	"github.com/pterm/pterm"
)

// New returns the CLI logger writing to stderr. Verbose enables debug level
// and pterm debug messages.
func New(verbose bool) *pterm.Logger {
	return NewWithWriter(os.Stderr, verbose)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, verbose bool) *pterm.Logger {
	level := pterm.LogLevelWarn
	if verbose {
		level = pterm.LogLevelDebug
		pterm.EnableDebugMessages()
	} else {
		pterm.DisableDebugMessages()
	}
	return pterm.DefaultLogger.
		WithLevel(level).
		WithWriter(w).
		WithTime(false)
}
