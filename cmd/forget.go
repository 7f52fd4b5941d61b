// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"quark/cli/internal/keychain"
	"quark/cli/internal/neterrors"
)

// forgetCmd removes a server from the recent list and its token from the
// keychain.
var forgetCmd = &cobra.Command{
	Use:   "forget <address|#n>",
	Short: "Remove a recent server and its saved token",
	Long: `The forget command removes a server from the recent-servers list and
deletes its access token from the OS keychain.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, list, err := openStore()
		if err != nil {
			return neterrors.Present(err, "loading recent servers")
		}

		srv, found, err := list.Select(args[0])
		if err != nil {
			return neterrors.Present(err, "reading the server address")
		}

		// Always clear the keychain, even for servers missing from the list
		if km, err := keychain.GetManager(); err == nil {
			if err := km.ClearToken(srv.Addr()); err != nil {
				log.Debug("keychain clear failed", log.Args("error", err.Error()))
			}
		}

		if !found {
			fmt.Fprintf(cmd.OutOrStdout(), "⚠️  %s is not in the recent servers\n", srv.Addr())
			return nil
		}
		list.Remove(srv.Host, srv.Port)
		if err := st.Save(list); err != nil {
			return neterrors.Present(err, "saving recent servers")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Removed %s and its saved token\n", srv.Addr())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(forgetCmd)
}
