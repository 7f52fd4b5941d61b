// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"quark/cli/internal/neterrors"
	"quark/cli/internal/servers"
)

// serversCmd lists the recent servers.
var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "List recent servers",
	Long: `The servers command lists the servers you have connected to, numbered in
the order they were added. The numbers can be passed to console, query
--server and forget as #n.

Tokens are never shown; the last column tells where a token is stored.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, list, err := openStore()
		if err != nil {
			return neterrors.Present(err, "loading recent servers")
		}
		out := cmd.OutOrStdout()
		if list.Len() == 0 {
			fmt.Fprintln(out, "⚠️  No recent servers")
			fmt.Fprintln(out, "   Please run: quark connect <address>")
			return nil
		}
		printServers(out, list)
		fmt.Fprintln(out)
		fmt.Fprintln(out, pterm.NewStyle(pterm.FgGray).Sprint("Stored in "+st.Path()))
		return nil
	},
}

// serverRows builds the rows of the servers table, header first.
func serverRows(list *servers.List) [][]string {
	rows := [][]string{{"#", "Address", "Last used", "Token"}}
	for i, s := range list.Servers {
		lastUsed := "never"
		if !s.LastUsed.IsZero() {
			lastUsed = s.LastUsed.Local().Format("2006-01-02 15:04")
		}
		token := "keychain"
		if s.Token != "" {
			token = "file"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), s.Addr(), lastUsed, token})
	}
	return rows
}

func printServers(w io.Writer, list *servers.List) {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(serverRows(list)).Srender()
	if err != nil {
		for _, row := range serverRows(list) {
			fmt.Fprintln(w, row)
		}
		return
	}
	fmt.Fprintln(w, out)
}

func init() {
	rootCmd.AddCommand(serversCmd)
}
