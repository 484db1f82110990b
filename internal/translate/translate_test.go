package translate

import (
	"testing"

	"github.com/seenimoa/jsdabond/internal/table"
)

func TestHeader(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"平均値複利", ColAvgYield, true},
		{"銘柄名", ColIssueName, true},
		{"償還期日", ColDueDate, true},
		{"平均値 複利", ColAvgYield, true},
		{"平均値　複利", ColAvgYield, true},
		{" 報告社数 ", ColReportingFirms, true},
		{ColAvgYield, ColAvgYield, true},
		{"不明な列", "不明な列", false},
		{"Column17", "Column17", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Header(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Header(%q): got (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestHeaderFullWidthVariants(t *testing.T) {
	// Half-width katakana folds to full-width under NFKC.
	got, ok := Header("ｸｰﾎﾟﾝ")
	if !ok || got != ColCouponRate {
		t.Errorf("Header(half-width): got (%q, %v)", got, ok)
	}
}

func TestHeadersIdempotent(t *testing.T) {
	in := append([]string{"未知", "Column17"}, JSDAColumns...)
	once, _ := Headers(in)
	twice, unmapped := Headers(once)
	if len(once) != len(twice) {
		t.Fatalf("length changed: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("column %d: once %q, twice %q", i, once[i], twice[i])
		}
	}
	if len(unmapped) != 2 {
		t.Errorf("unmapped after second pass: got %v, want [未知 Column17]", unmapped)
	}
}

func TestLabelsAreNotKeys(t *testing.T) {
	for k, v := range headers {
		if _, clash := headers[normalize(v)]; clash {
			t.Errorf("label %q (from %q) is also a key", v, k)
		}
		if got, _ := Header(v); got != v {
			t.Errorf("Header(%q) = %q, labels must map to themselves", v, got)
		}
	}
}

func TestJSDAColumnsAllMapped(t *testing.T) {
	_, unmapped := Headers(JSDAColumns)
	if len(unmapped) != 0 {
		t.Errorf("JSDAColumns has unmapped entries: %v", unmapped)
	}
}

func TestTablePreservesOrderAndRows(t *testing.T) {
	src := &table.Table{
		Columns: []string{"銘柄名", "独自列", "平均値複利"},
		Rows:    [][]string{{"トヨタ自動車", "x", "0.512"}},
	}
	got, unmapped := Table(src)

	want := []string{ColIssueName, "独自列", ColAvgYield}
	for i := range want {
		if got.Columns[i] != want[i] {
			t.Errorf("column %d: got %q, want %q", i, got.Columns[i], want[i])
		}
	}
	if len(unmapped) != 1 || unmapped[0] != "独自列" {
		t.Errorf("unmapped: got %v", unmapped)
	}
	if got.Rows[0][2] != "0.512" {
		t.Errorf("row data changed: %v", got.Rows[0])
	}
	if src.Columns[0] != "銘柄名" {
		t.Error("source table columns must not be modified")
	}
}

func TestTableOptions(t *testing.T) {
	opts := TableOptions(0)
	if !opts.IsHeader("平均値複利") || opts.IsHeader("トヨタ自動車") {
		t.Error("IsHeader should recognise only column names")
	}
	if len(opts.DefaultColumns) != 16 {
		t.Errorf("DefaultColumns: got %d", len(opts.DefaultColumns))
	}
}
