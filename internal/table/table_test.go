package table

import (
	"bytes"
	"strings"
	"testing"
)

func sample() *Table {
	return &Table{
		Columns: []string{"Issue Name", "Due Date", "Average Compound Yield"},
		Rows: [][]string{
			{"日立", "20280301", "0.55"},
			{"ソニー", "20300601", "0.9"},
			{"トヨタ自動車", "20311015", "0.812"},
		},
	}
}

func TestTableAccessors(t *testing.T) {
	tbl := sample()
	if tbl.Len() != 3 || tbl.Empty() {
		t.Errorf("Len: got %d", tbl.Len())
	}
	if tbl.ColumnIndex("Due Date") != 1 {
		t.Errorf("ColumnIndex: got %d", tbl.ColumnIndex("Due Date"))
	}
	if tbl.HasColumn("Coupon Rate") {
		t.Error("HasColumn(Coupon Rate) should be false")
	}
	if got := tbl.Value(1, "Average Compound Yield"); got != "0.9" {
		t.Errorf("Value: got %q", got)
	}
	if tbl.Value(9, "Due Date") != "" || tbl.Value(0, "nope") != "" {
		t.Error("out-of-range Value should be empty")
	}
	var nilTable *Table
	if nilTable.Len() != 0 {
		t.Error("nil table Len should be 0")
	}
}

func TestWithColumns(t *testing.T) {
	tbl := sample()
	renamed := tbl.WithColumns([]string{"a", "b", "c"})
	if renamed.Columns[0] != "a" || tbl.Columns[0] != "Issue Name" {
		t.Errorf("WithColumns must not touch the source: %v / %v", renamed.Columns, tbl.Columns)
	}
	if renamed.Rows[2][0] != "トヨタ自動車" {
		t.Error("rows should be carried over")
	}

	defer func() {
		if recover() == nil {
			t.Error("WithColumns with wrong width should panic")
		}
	}()
	tbl.WithColumns([]string{"a"})
}

func TestHead(t *testing.T) {
	tbl := sample()
	if tbl.Head(2).Len() != 2 {
		t.Errorf("Head(2): got %d rows", tbl.Head(2).Len())
	}
	if tbl.Head(10).Len() != 3 || tbl.Head(-1).Len() != 3 {
		t.Error("Head beyond length should return all rows")
	}
}

func TestRecords(t *testing.T) {
	recs := sample().Records()
	if recs[0]["Issue Name"] != "日立" || recs[2]["Average Compound Yield"] != "0.812" {
		t.Errorf("Records: got %v", recs)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := sample().WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines: got %d, want 4", len(lines))
	}
	if lines[0] != "Issue Name,Due Date,Average Compound Yield" {
		t.Errorf("header line: got %q", lines[0])
	}
}

func TestParseErrorMessage(t *testing.T) {
	err := parseErr("csv", ErrTooFewColumns, "got %d, need at least %d", 3, 5)
	want := "parse csv: got 3, need at least 5: not enough columns"
	if err.Error() != want {
		t.Errorf("Error(): got %q, want %q", err.Error(), want)
	}
	if err.Unwrap() != ErrTooFewColumns {
		t.Error("Unwrap should return the sentinel")
	}
}
