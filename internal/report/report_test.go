package report

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/jsdabond/internal/table"
	"github.com/seenimoa/jsdabond/pkg/models"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := utils.ParseDateJST(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func sampleCurve(t *testing.T) *models.YieldCurve {
	return &models.YieldCurve{
		Date:  day(t, "2026-10-16"),
		Issue: "トヨタ自動車",
		Points: []models.CurvePoint{
			{IssueCode: "000124", IssueName: "トヨタ自動車", DueDate: day(t, "2029-10-15"), YearsToMaturity: 3.0, Yield: decimal.RequireFromString("0.611")},
			{IssueCode: "000123", IssueName: "トヨタ自動車", DueDate: day(t, "2031-10-15"), YearsToMaturity: 5.0, Yield: decimal.RequireFromString("0.812")},
		},
	}
}

// ════════════════════════════════════════════════════════════════════
// Charts
// ════════════════════════════════════════════════════════════════════

func TestYieldCurveChart(t *testing.T) {
	svg := YieldCurveChart(sampleCurve(t), DefaultChartConfig())
	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("not an SVG document")
	}
	for _, want := range []string{"Yield curve for トヨタ自動車", "Yield (%)", "Years to maturity", "<path", "<circle"} {
		if !strings.Contains(svg, want) {
			t.Errorf("missing %q", want)
		}
	}
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("markers: got %d, want 2", n)
	}
}

func TestYieldCurveChartEmpty(t *testing.T) {
	for _, c := range []*models.YieldCurve{nil, {Issue: "x"}} {
		svg := YieldCurveChart(c, ChartConfig{})
		if !strings.Contains(svg, "No data") {
			t.Errorf("expected placeholder, got %q", svg)
		}
	}
}

func TestYieldCurveChartSinglePoint(t *testing.T) {
	c := sampleCurve(t)
	c.Points = c.Points[:1]
	svg := YieldCurveChart(c, Sized(600, 300))
	if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Error("single point must not produce NaN coordinates")
	}
	if !strings.Contains(svg, `width="600"`) {
		t.Error("Sized width not applied")
	}
}

func TestYieldCurveChartEscapesTitle(t *testing.T) {
	c := sampleCurve(t)
	c.Issue = "A&B <Corp>"
	svg := YieldCurveChart(c, ChartConfig{})
	if strings.Contains(svg, "<Corp>") {
		t.Error("issue name not escaped")
	}
	if !strings.Contains(svg, "A&amp;B &lt;Corp&gt;") {
		t.Error("escaped issue name missing")
	}
}

func TestLineChart(t *testing.T) {
	svg := LineChart([]LineChartSeries{
		{Name: "A", Values: []float64{0.5, 0.6, math.NaN(), 0.7}},
		{Name: "B", Values: []float64{math.NaN(), 0.9, math.NaN(), math.NaN()}},
	}, []string{"10/13", "10/14", "10/15", "10/16"}, ChartConfig{Title: "T"})

	if !strings.Contains(svg, "<path") {
		t.Error("series A should be drawn as a path")
	}
	if !strings.Contains(svg, "<circle") {
		t.Error("series B has one point and should be a marker")
	}
	if strings.Contains(svg, "NaN") {
		t.Error("NaN leaked into SVG")
	}
	if !strings.Contains(svg, "10/13") {
		t.Error("x labels missing")
	}
}

func TestLineChartEmpty(t *testing.T) {
	if svg := LineChart(nil, nil, ChartConfig{}); !strings.Contains(svg, "No data") {
		t.Error("nil series should render placeholder")
	}
	all := LineChart([]LineChartSeries{{Name: "x", Values: []float64{math.NaN()}}}, nil, ChartConfig{})
	if !strings.Contains(all, "No data") {
		t.Error("all-NaN series should render placeholder")
	}
}

func TestHistoryChart(t *testing.T) {
	pts := []models.HistoryPoint{
		{Date: day(t, "2026-10-15"), IssueCode: "000123", IssueName: "トヨタ自動車", YearsToMaturity: 5, Yield: decimal.RequireFromString("0.80")},
		{Date: day(t, "2026-10-15"), IssueCode: "000124", IssueName: "トヨタ自動車", YearsToMaturity: 3, Yield: decimal.RequireFromString("0.60")},
		{Date: day(t, "2026-10-16"), IssueCode: "000123", IssueName: "トヨタ自動車", YearsToMaturity: 5, Yield: decimal.RequireFromString("0.81")},
	}
	svg := HistoryChart(pts, "トヨタ自動車", ChartConfig{})
	for _, want := range []string{"Yield history for トヨタ自動車", "000123 (5.0y)", "000124 (3.0y)", "10/16"} {
		if !strings.Contains(svg, want) {
			t.Errorf("missing %q", want)
		}
	}
	if !strings.Contains(HistoryChart(nil, "x", ChartConfig{}), "No data") {
		t.Error("empty history should render placeholder")
	}
}

func TestNiceStep(t *testing.T) {
	tests := []struct {
		span float64
		want float64
	}{
		{10, 2},
		{30, 5},
		{4, 0.5},
		{0, 1},
	}
	for _, tt := range tests {
		if got := niceStep(tt.span, 8); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("niceStep(%v): got %v, want %v", tt.span, got, tt.want)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// Viewer page and text output
// ════════════════════════════════════════════════════════════════════

func sampleTable() *table.Table {
	return &table.Table{
		Columns: []string{"Issue Name", "Average Compound Yield"},
		Rows: [][]string{
			{"トヨタ自動車", "0.812"},
			{"ソニーグループ", "0.902"},
			{"<script>", "1.0"},
		},
	}
}

func TestViewerPage(t *testing.T) {
	data := ViewerData{
		Date:    "2026-10-16",
		MinDate: "2000-01-01",
		MaxDate: "2026-10-18",
		Issues:  []string{"ソニーグループ", "トヨタ自動車"},
		Issue:   "トヨタ自動車",
		Notices: []models.Notice{{Title: "Holiday schedule", Link: "https://example.test/n1", Published: day(t, "2026-10-01")}},
	}
	data.SetTable(sampleTable(), 2)
	data.SetChart(YieldCurveChart(sampleCurve(t), ChartConfig{}))

	out, err := ViewerPage(data)
	if err != nil {
		t.Fatalf("ViewerPage: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		"<title>Corporate Bond Data Viewer</title>",
		`min="2000-01-01"`,
		`max="2026-10-18"`,
		`<option value="トヨタ自動車" selected>`,
		"<svg",
		"<th>Average Compound Yield</th>",
		"Showing 2 of 3 rows",
		"Holiday schedule",
		"2026-10-01",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q", want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Error("cell content must be escaped")
	}
}

func TestViewerPageError(t *testing.T) {
	out, err := ViewerPage(ViewerData{Error: "No data available for the selected date. Status code: 404"})
	if err != nil {
		t.Fatal(err)
	}
	html := string(out)
	if !strings.Contains(html, `class="error"`) || !strings.Contains(html, "Status code: 404") {
		t.Error("error block missing")
	}
	if strings.Contains(html, "<table>") {
		t.Error("no table expected without data")
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleTable(), 2); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines: got %d, want 3\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "Issue Name") || !strings.Contains(lines[0], "Average Compound Yield") {
		t.Errorf("header line: %q", lines[0])
	}
}

func TestWriteCurveText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCurveText(&buf, sampleCurve(t)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "2029-10-15") || !strings.Contains(out, "0.611") {
		t.Errorf("output:\n%s", out)
	}
	if strings.Index(out, "000124") > strings.Index(out, "000123") {
		t.Error("points should keep maturity order")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("日本語テキスト", 3); got != "日本語…" {
		t.Errorf("truncate: got %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate: got %q", got)
	}
}
