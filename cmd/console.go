// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	qerrors "quark/cli/internal/errors"
	"quark/cli/internal/neterrors"
	"quark/cli/internal/render"
	"quark/cli/internal/servers"
	"quark/cli/internal/terminal"
	"quark/cli/internal/xdg"
)

const consolePrompt = "quark> "

// consoleCmd runs the interactive query console.
var consoleCmd = &cobra.Command{
	Use:   "console [address|#n]",
	Short: "Open an interactive query console",
	Long: `The console command connects to a server and reads queries line by line.
Each line is sent as one query and its result is printed as a table.

Without an argument the recent servers are listed and you pick one by number
or type a new address. Type .help for console commands.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		st, list, err := openStore()
		if err != nil {
			return neterrors.Present(err, "loading recent servers")
		}

		arg := serverArg(args)
		if arg == "" && list.Len() > 0 && terminal.IsInteractive() {
			if arg, err = chooseServer(out, list); err != nil {
				return err
			}
		}
		srv, err := pickServer(list, arg)
		if err != nil {
			return neterrors.Present(err, "reading the server address")
		}

		sess, err := openSession(ctx, out, srv, resolveToken(srv))
		if err != nil {
			return err
		}
		defer func() { _ = sess.client.Close() }()
		touch(st, list, srv)

		return runConsole(ctx, out, sess, list)
	},
}

// chooseServer lists recent servers and asks for a number or an address.
// An empty answer picks the first server.
func chooseServer(w io.Writer, list *servers.List) (string, error) {
	printServers(w, list)
	fmt.Fprintln(w)
	fmt.Fprint(w, "Server number or address [1]: ")
	line, err := terminal.ReadLine(os.Stdin)
	if err != nil && !errors.Is(err, terminal.ErrNoInput) {
		return "", err
	}
	if line == "" {
		return "1", nil
	}
	return line, nil
}

func runConsole(ctx context.Context, w io.Writer, sess *session, list *servers.List) error {
	historyFile := ""
	if dir, err := xdg.StateDir(); err == nil {
		historyFile = filepath.Join(dir, "history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          consolePrompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       ".exit",
		Stdout:          w,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize console: %w", err)
	}
	defer func() { _ = rl.Close() }()

	fmt.Fprintf(w, "Connected to %s\n", pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(sess.server.Addr()))
	fmt.Fprintln(w, "Type .help for commands, .exit to quit")
	fmt.Fprintln(w)

	return consoleLoop(ctx, w, rl.Readline, sess, list)
}

// consoleLoop reads lines until .exit, EOF or context cancellation.
// A failed exchange leaves the connection broken, so the next query
// reconnects first.
func consoleLoop(ctx context.Context, w io.Writer, readLine func() (string, error), sess *session, list *servers.List) error {
	reconnect := false
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := readLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(w, line, list); quit {
				return nil
			}
			continue
		}

		if reconnect {
			if err := sess.client.Connect(ctx); err != nil {
				_ = neterrors.Present(err, "reconnecting to "+sess.server.Addr())
				continue
			}
			reconnect = false
		}

		r, err := runQuery(ctx, sess.client, line)
		if err != nil {
			_ = neterrors.Present(err, "running the query")
			reconnect = !qerrors.Is(err, qerrors.MalformedResult)
			continue
		}
		render.Console(w, r)
		fmt.Fprintln(w)
	}
}

// handleDotCommand runs a console command and reports whether to quit.
func handleDotCommand(w io.Writer, line string, list *servers.List) bool {
	switch strings.Fields(line)[0] {
	case ".exit", ".quit":
		return true
	case ".help":
		fmt.Fprintln(w, "Console commands:")
		fmt.Fprintln(w, "  .help      Show this help")
		fmt.Fprintln(w, "  .servers   List recent servers")
		fmt.Fprintln(w, "  .exit      Leave the console (also .quit or Ctrl-D)")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Any other line is sent to the server as one query.")
	case ".servers":
		printServers(w, list)
	default:
		fmt.Fprintf(w, "Unknown command %s, type .help for a list\n", line)
	}
	return false
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
