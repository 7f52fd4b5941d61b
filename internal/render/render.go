// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package render prints query results: the interactive console view and the
// table, markdown, csv and json output formats of the query command.
package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pterm/pterm"

	"quark/cli/internal/result"
)

// NoTable is printed for a successful query that returned no rows.
const NoTable = "<no table returned>"

var (
	successStyle = pterm.NewStyle(pterm.FgGreen, pterm.Bold)
	errorStyle   = pterm.NewStyle(pterm.FgRed, pterm.Bold)
	warnStyle    = pterm.NewStyle(pterm.FgYellow, pterm.Bold)
	dimStyle     = pterm.NewStyle(pterm.FgGray)
)

// Headline returns the status line shown above a result.
func Headline(s result.QueryExecutionStatus) string {
	switch s {
	case result.StatusOK:
		return successStyle.Sprint("✅ Query is executed successfully")
	case result.StatusSyntaxError:
		return errorStyle.Sprint("❌ Your query contains a syntax error.")
	case result.StatusServerError:
		return errorStyle.Sprint("💥 Server got an error.")
	case result.StatusMiddlewareError:
		return warnStyle.Sprint("🚧 Your query cannot be handled.")
	default:
		return errorStyle.Sprint("❓ " + s.String())
	}
}

// ExecutionTime formats a server-reported time; 0 means under a millisecond.
func ExecutionTime(ms int64) string {
	if ms <= 0 {
		return "<1 ms"
	}
	return strconv.FormatInt(ms, 10) + " ms"
}

// Console writes the interactive view of r: headline, message, and for a
// successful query the execution time and the table.
func Console(w io.Writer, r result.QueryResult) {
	fmt.Fprintln(w, Headline(r.Status()))
	if r.Message() != "" {
		fmt.Fprintln(w, r.Message())
	}

	switch r.Status() {
	case result.StatusOK:
		fmt.Fprintln(w, dimStyle.Sprint("Execution time: "+ExecutionTime(r.TimeMillis())))
		if !r.HasTable() {
			fmt.Fprintln(w, NoTable)
			return
		}
		fmt.Fprintln(w, newWriter(r.Table()).Render())
		fmt.Fprintln(w, dimStyle.Sprint(rowCount(r.Table().RowCount())))
	case result.StatusServerError:
		if r.HasException() {
			fmt.Fprintln(w, errorStyle.Sprint("Exception: ")+r.Exception())
		}
	}
}

func rowCount(n int) string {
	if n == 1 {
		return "(1 row)"
	}
	return fmt.Sprintf("(%d rows)", n)
}

func newWriter(tv result.TableView) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	// Column names are shown as the server sent them.
	t.Style().Format.Header = text.FormatDefault

	names := tv.Header().ColumnNames()
	header := make(table.Row, len(names))
	for i, n := range names {
		header[i] = n
	}
	t.AppendHeader(header)

	for _, r := range tv.Rows() {
		cells := r.Cells()
		row := make(table.Row, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		t.AppendRow(row)
	}
	return t
}
