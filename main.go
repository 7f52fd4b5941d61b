// Package main is the entry point for the Quark CLI application.
// It provides an interactive console and one-shot queries against Quark servers.
package main

import (
	"quark/cli/cmd"
)

// main is the entry point for the Quark CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
