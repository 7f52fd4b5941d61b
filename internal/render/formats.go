// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"quark/cli/internal/config"
	"quark/cli/internal/result"
)

// jsonResult mirrors the response wire shape.
type jsonResult struct {
	Status    string     `json:"status"`
	Message   string     `json:"message"`
	Exception *string    `json:"exception,omitempty"`
	Time      int64      `json:"time"`
	Table     *jsonTable `json:"table,omitempty"`
}

type jsonTable struct {
	Header  []string   `json:"header"`
	Records [][]string `json:"records"`
}

// Write renders r in format. The table format is the console view; markdown
// and csv emit only the table; json emits the whole result.
func Write(w io.Writer, r result.QueryResult, format string) error {
	switch format {
	case config.FormatJSON:
		return writeJSON(w, r)
	case config.FormatCSV:
		if hasColumns(r) {
			return writeCSV(w, r)
		}
		return nil
	case config.FormatMarkdown:
		if hasColumns(r) {
			fmt.Fprintln(w, newWriter(r.Table()).RenderMarkdown())
		}
		return nil
	case config.FormatTable, "":
		Console(w, r)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func hasColumns(r result.QueryResult) bool {
	return r.Table().Header().Len() > 0
}

// writeCSV emits RFC 4180 CSV: the header row, then one line per record.
func writeCSV(w io.Writer, r result.QueryResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Table().Header().ColumnNames()); err != nil {
		return err
	}
	if err := cw.WriteAll(r.Table().Records()); err != nil {
		return err
	}
	return cw.Error()
}

func writeJSON(w io.Writer, r result.QueryResult) error {
	out := jsonResult{
		Status:  r.Status().String(),
		Message: r.Message(),
		Time:    r.TimeMillis(),
	}
	if r.HasException() {
		e := r.Exception()
		out.Exception = &e
	}
	if hasColumns(r) {
		records := r.Table().Records()
		if records == nil {
			records = [][]string{}
		}
		out.Table = &jsonTable{
			Header:  r.Table().Header().ColumnNames(),
			Records: records,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
