// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the Quark query client.
// It implements subcommands for connecting to servers, running queries
// interactively or one-shot, and managing the list of recent servers, using
// the Cobra CLI framework with a pterm terminal UI.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"quark/cli/internal/config"
	"quark/cli/internal/dsn"
	"quark/cli/internal/logging"
)

var (
	showVersion bool
	cfgFile     string

	// settings is loaded before every command runs.
	settings = &config.Config{
		Host:    dsn.DefaultHost,
		Port:    dsn.DefaultPort,
		Timeout: config.DefaultTimeout,
		Format:  config.FormatTable,
	}
	log = logging.New(false)
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "quark",
	Short: "Quark CLI for querying Quark servers",
	Long: `Quark is a command-line client for Quark query servers. It sends queries over
a framed TCP connection and prints the results as tables.

Settings come from flags, QUARK_* environment variables and config.yaml in the
config directory, in that order of precedence.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("quark %s\n", Version)
			return nil
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

func loadSettings(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	settings = cfg
	log = logging.New(cfg.Verbose)
	if cfg.File != "" {
		log.Debug("loaded config", log.Args("file", cfg.File))
	}
	return nil
}

// Execute runs the CLI application.
// Interrupts cancel the command context, which aborts a running query.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		pterm.Error.WithWriter(os.Stderr).Println(logging.PresentError("", err))
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: config.yaml in the quark config dir)")
	pf.BoolP("verbose", "v", false, "Enable verbose debug output")
	pf.String("host", dsn.DefaultHost, "Server host")
	pf.Int("port", dsn.DefaultPort, "Server port")
	pf.String("token", "", "Access token (overrides the keychain)")
	pf.Duration("timeout", config.DefaultTimeout, "Timeout for one query, 0 for none")
}

// queryContext bounds one query by the configured timeout.
func queryContext(parent context.Context) (context.Context, context.CancelFunc) {
	if settings.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, settings.Timeout)
}

// dialTimeout bounds connection setup.
const dialTimeout = 10 * time.Second
