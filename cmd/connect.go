// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"quark/cli/internal/config"
	"quark/cli/internal/keychain"
	"quark/cli/internal/neterrors"
	"quark/cli/internal/terminal"
)

var (
	connectMakeDefault bool
)

// connectCmd verifies a server is reachable and remembers it together with
// its access token.
var connectCmd = &cobra.Command{
	Use:   "connect [address]",
	Short: "Verify and remember a Quark server",
	Long: `The connect command opens a connection to a Quark server to verify it is
reachable, then adds it to the recent-servers list. The access token is stored
in the OS keychain; when no keychain is available it is kept in the
recent-servers file instead.

The address may be host, host:port, [ipv6]:port or quark://token@host:port.
Without an address you are prompted for one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, list, err := openStore()
		if err != nil {
			return neterrors.Present(err, "loading recent servers")
		}

		arg := serverArg(args)
		if arg == "" && terminal.IsInteractive() {
			def := fmt.Sprintf("%s:%d", settings.Host, settings.Port)
			promptText := fmt.Sprintf("Server address [%s]: ", def)
			fmt.Print(promptText)
			line, err := terminal.ReadLine(os.Stdin)
			if err != nil && !errors.Is(err, terminal.ErrNoInput) {
				return err
			}
			terminal.ClearPreviousLines(len(promptText) + len(line))
			arg = line
		}

		srv, err := pickServer(list, arg)
		if err != nil {
			return neterrors.Present(err, "reading the server address")
		}

		token := srv.Token
		if token == "" {
			token = settings.Token
		}
		if token == "" && terminal.IsInteractive() {
			token, err = terminal.ReadSecret("Access token (input hidden, empty for none): ")
			if err != nil {
				return err
			}
		}

		start := time.Now()
		sess, err := openSession(ctx, os.Stdout, srv, token)
		if err != nil {
			return err
		}
		_ = sess.client.Close()
		log.Debug("connection verified", log.Args("addr", srv.Addr(), "elapsed", time.Since(start).String()))

		srv.Token = ""
		if token != "" {
			if err := saveToken(srv.Addr(), token); err != nil {
				pterm.Warning.Println("Secure storage is not available, the token is kept in " + st.Path())
				log.Debug("keychain save failed", log.Args("error", err.Error()))
				srv.Token = token
			}
		}
		srv.LastUsed = time.Now().UTC()
		list.Upsert(srv)
		if err := st.Save(list); err != nil {
			return neterrors.Present(err, "saving recent servers")
		}

		if connectMakeDefault {
			p := cfgFile
			if p == "" {
				if p, err = config.DefaultPath(); err != nil {
					return err
				}
			}
			if err := config.SaveServer(p, srv.Host, srv.Port); err != nil {
				return neterrors.Present(err, "saving the default server")
			}
		}

		pterm.Println("✅ Connected to " + pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(srv.Addr()))
		if connectMakeDefault {
			pterm.Println("   Saved as the default server")
		}
		pterm.Println("   You're ready to run 'quark console'")
		return nil
	},
}

func saveToken(addr, token string) error {
	km, err := keychain.GetManager()
	if err != nil {
		return err
	}
	return km.SaveToken(addr, token)
}

func init() {
	rootCmd.AddCommand(connectCmd)
	connectCmd.Flags().BoolVar(&connectMakeDefault, "default", false, "Also make this the default server in config.yaml")
}
