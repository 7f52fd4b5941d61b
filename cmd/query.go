// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"quark/cli/internal/client"
	"quark/cli/internal/config"
	"quark/cli/internal/logging"
	"quark/cli/internal/neterrors"
	"quark/cli/internal/render"
	"quark/cli/internal/result"
)

var (
	queryServer string
)

// queryCmd runs one query and prints the result.
var queryCmd = &cobra.Command{
	Use:   "query <instruction>",
	Short: "Run one query and print the result",
	Long: `The query command sends a single instruction to the server and prints the
result in the chosen format (table, markdown, csv or json). The exit status is
non-zero unless the server reports OK.

The server is --server (an address or a recent-server number), otherwise the
configured host and port.`,
	Example: `  quark query "SELECT * FROM users"
  quark query --server '#2' --format csv "SELECT id FROM users"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		instruction := strings.Join(args, " ")

		st, list, err := openStore()
		if err != nil {
			return neterrors.Present(err, "loading recent servers")
		}
		srv, err := pickServer(list, queryServer)
		if err != nil {
			return neterrors.Present(err, "reading the server address")
		}

		sess, err := openSession(ctx, cmd.ErrOrStderr(), srv, resolveToken(srv))
		if err != nil {
			return err
		}
		defer sess.client.Close()
		touch(st, list, srv)

		r, err := runQuery(ctx, sess.client, instruction)
		if err != nil {
			return neterrors.Present(err, "querying "+srv.Addr())
		}
		if err := writeResult(cmd.OutOrStdout(), r); err != nil {
			return err
		}
		if !r.OK() {
			return fmt.Errorf("query finished with status %s", r.Status())
		}
		return nil
	},
}

// runQuery sends one instruction within the configured timeout.
func runQuery(ctx context.Context, c *client.Client, instruction string) (result.QueryResult, error) {
	qctx, cancel := queryContext(ctx)
	defer cancel()

	log.Debug("sending query", log.Args("query", logging.Mask(instruction)))
	r, err := c.Query(qctx, instruction)
	if err != nil {
		return result.QueryResult{}, err
	}
	log.Debug("query done", log.Args("status", r.Status().String(), "time_ms", r.TimeMillis()))
	return r, nil
}

// writeResult renders r on w in the configured format.
func writeResult(w io.Writer, r result.QueryResult) error {
	return render.Write(w, r, settings.Format)
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryServer, "server", "s", "", "Server address or recent-server number")
	queryCmd.Flags().StringP("format", "f", config.FormatTable, "Output format: "+strings.Join(config.Formats, ", "))
}
