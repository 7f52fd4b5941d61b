// Copyright (c) 2025 Quark
// Licensed under the MIT License. See LICENSE file in the project root for details.

package result

import (
	"errors"
	"fmt"
)

// ErrRowArity is wrapped by every error about a row whose cell count differs
// from its header's column count.
var ErrRowArity = errors.New("row does not match table header")

// TableViewHeader is the ordered list of column names of a table view.
type TableViewHeader struct {
	columns []string
}

// NewTableViewHeader builds a header; the order of names defines column positions.
func NewTableViewHeader(columnNames ...string) TableViewHeader {
	return TableViewHeader{columns: append([]string(nil), columnNames...)}
}

// ColumnNames returns a copy of the column names.
func (h TableViewHeader) ColumnNames() []string {
	return append([]string(nil), h.columns...)
}

// Len is the number of columns.
func (h TableViewHeader) Len() int { return len(h.columns) }

// ProduceRow builds a row for this header. A row with more or fewer cells than
// the header has columns is rejected.
func (h TableViewHeader) ProduceRow(cells ...string) (TableViewRow, error) {
	if len(cells) == len(h.columns) {
		return TableViewRow{cells: append([]string(nil), cells...)}, nil
	}

	relation := "fewer"
	if len(cells) > len(h.columns) {
		relation = "more"
	}
	return TableViewRow{}, fmt.Errorf("%w: row has %d cells, %s than the header's %d columns",
		ErrRowArity, len(cells), relation, len(h.columns))
}

// TableViewRow is one row of cells. Rows can only be made by
// TableViewHeader.ProduceRow, so every row matches its header.
type TableViewRow struct {
	cells []string
}

// Cells returns a copy of the row's cells.
func (r TableViewRow) Cells() []string {
	return append([]string(nil), r.cells...)
}

// Cell returns the cell at column i.
func (r TableViewRow) Cell(i int) string { return r.cells[i] }

// Len is the number of cells.
func (r TableViewRow) Len() int { return len(r.cells) }

// TableView is a header plus the rows produced for it.
type TableView struct {
	header TableViewHeader
	rows   []TableViewRow
}

// EmptyTable is the table of a result without tabular data.
func EmptyTable() TableView {
	return TableView{}
}

// NewTableView builds a table from a header and raw row cells, enforcing the
// header arity on every row. The error names the offending row (0-based).
func NewTableView(header TableViewHeader, records ...[]string) (TableView, error) {
	rows := make([]TableViewRow, 0, len(records))
	for i, cells := range records {
		row, err := header.ProduceRow(cells...)
		if err != nil {
			return TableView{}, fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return TableView{header: header, rows: rows}, nil
}

// Header returns the table header.
func (t TableView) Header() TableViewHeader { return t.header }

// Rows returns a copy of the rows slice.
func (t TableView) Rows() []TableViewRow {
	return append([]TableViewRow(nil), t.rows...)
}

// RowCount is the number of rows.
func (t TableView) RowCount() int { return len(t.rows) }

// Records returns the rows as plain cell slices, in order.
func (t TableView) Records() [][]string {
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Cells()
	}
	return out
}
