// Package table holds the rectangular string table produced from a JSDA
// download, and the parsers that build it from CSV or HTML payloads.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Table is an ordered set of named columns over string rows.
// Every row has exactly len(Columns) cells.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool { return t.ColumnIndex(name) >= 0 }

// Value returns the cell of row i in the named column, or "" if either is out of range.
func (t *Table) Value(i int, column string) string {
	idx := t.ColumnIndex(column)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return ""
	}
	return t.Rows[i][idx]
}

// WithColumns returns a table with the given column names over the same rows.
// The row slices are shared; tables are treated as read-only once built.
func (t *Table) WithColumns(columns []string) *Table {
	if len(columns) != len(t.Columns) {
		panic(fmt.Sprintf("table: WithColumns got %d names for %d columns", len(columns), len(t.Columns)))
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols, Rows: t.Rows}
}

// Head returns a table holding at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n >= len(t.Rows) {
		return t
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Records returns each row as a column → value map.
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]string, len(t.Columns))
		for j, c := range t.Columns {
			m[c] = row[j]
		}
		out[i] = m
	}
	return out
}

// WriteCSV writes the header and all rows as UTF-8 CSV.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// PositionalName is the name given to a column with no known header.
// Positions are 1-based.
func PositionalName(pos int) string {
	return "Column" + strconv.Itoa(pos)
}
