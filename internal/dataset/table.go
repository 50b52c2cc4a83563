// Package dataset provides the line-list input contract for the analysis
// engines: a column-addressable table with a stable row order, loadable
// from CSV and XLSX files or built directly from rows.
//
// Cells are strings. A cell is missing when it is empty after trimming
// whitespace; typed interpretation (dates, numbers) is the concern of the
// consuming engine and is always lenient there.
package dataset

import (
	"fmt"
	"strings"
)

// Table is an immutable-after-build, row-ordered collection of string cells
// with named columns.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New creates an empty table with the given column names.
// Column names must be non-empty and unique.
func New(columns []string) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table requires at least one column")
	}

	index := make(map[string]int, len(columns))
	for i, name := range columns {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", name)
		}
		index[name] = i
	}

	normalized := make([]string, len(columns))
	for name, i := range index {
		normalized[i] = name
	}

	return &Table{columns: normalized, index: index, rows: nil}, nil
}

// AppendRow adds a row of cells in column order.
func (t *Table) AppendRow(cells []string) error {
	if len(cells) != len(t.columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.columns))
	}
	row := make([]string, len(cells))
	copy(row, cells)
	t.rows = append(t.rows, row)
	return nil
}

// AppendRecord adds a row given as a column-name-to-value map.
// Columns absent from the map become missing cells.
func (t *Table) AppendRecord(record map[string]string) {
	row := make([]string, len(t.columns))
	for name, value := range record {
		if i, ok := t.index[name]; ok {
			row[i] = value
		}
	}
	t.rows = append(t.rows, row)
}

// Columns returns the column names in order
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the table has a column with the given name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// NumRows returns the number of rows
func (t *Table) NumRows() int {
	return len(t.rows)
}

// Value returns the cell at (row, column). The second return is false when
// the column does not exist.
func (t *Table) Value(row int, column string) (string, bool) {
	i, ok := t.index[column]
	if !ok {
		return "", false
	}
	return t.rows[row][i], true
}

// Column returns all cells of the named column in row order
func (t *Table) Column(name string) ([]string, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]string, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, nil
}

// IsMissing reports whether a cell value counts as missing data
func IsMissing(value string) bool {
	return strings.TrimSpace(value) == ""
}

// FromRecords builds a table from ordered columns and map-form rows.
// This is the shape the HTTP API accepts.
func FromRecords(columns []string, records []map[string]string) (*Table, error) {
	tbl, err := New(columns)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		tbl.AppendRecord(record)
	}
	return tbl, nil
}
