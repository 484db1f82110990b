package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/seenimoa/jsdabond/internal/table"
	"github.com/seenimoa/jsdabond/pkg/models"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

// PageTitle is the heading of the viewer page.
const PageTitle = "Corporate Bond Data Viewer"

// DefaultPreviewRows is how many table rows the viewer shows.
const DefaultPreviewRows = 20

// ════════════════════════════════════════════════════════════════════
// Viewer data, flattened for template rendering
// ════════════════════════════════════════════════════════════════════

// ViewerData is the template model of the viewer page.
type ViewerData struct {
	Title   string
	Date    string // selected date, YYYY-MM-DD
	MinDate string
	MaxDate string

	Issues []string
	Issue  string
	Prefix bool

	Chart     template.HTML // SVG markup
	SourceURL string

	Columns   []string
	Rows      [][]string
	TotalRows int
	Unmapped  []string

	Error   string
	Notices []models.Notice

	GeneratedAt string
}

// SetTable fills the preview from t, keeping at most limit rows.
func (d *ViewerData) SetTable(t *table.Table, limit int) {
	if t == nil {
		return
	}
	if limit <= 0 {
		limit = DefaultPreviewRows
	}
	head := t.Head(limit)
	d.Columns = head.Columns
	d.Rows = head.Rows
	d.TotalRows = t.Len()
}

// SetChart embeds svg, which must come from this package's chart functions.
func (d *ViewerData) SetChart(svg string) {
	d.Chart = template.HTML(svg)
}

// ViewerPage renders the viewer page.
func ViewerPage(data ViewerData) ([]byte, error) {
	if data.Title == "" {
		data.Title = PageTitle
	}
	if data.GeneratedAt == "" {
		data.GeneratedAt = utils.FormatDateTimeJST(utils.NowJST())
	}

	tmpl, err := template.New("viewer").Funcs(template.FuncMap{
		"date":  utils.FormatDateJST,
		"trunc": truncate,
	}).Parse(ViewerTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing viewer template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing viewer template: %w", err)
	}
	return buf.Bytes(), nil
}

// ════════════════════════════════════════════════════════════════════
// Plain Text
// ════════════════════════════════════════════════════════════════════

// WriteText writes t as aligned columns. limit <= 0 writes every row.
func WriteText(w io.Writer, t *table.Table, limit int) error {
	if limit > 0 {
		t = t.Head(limit)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// WriteCurveText writes the points of c, shortest maturity first.
func WriteCurveText(w io.Writer, c *models.YieldCurve) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Yield curve for %s on %s\n", c.Issue, utils.FormatDateJST(c.Date))
	fmt.Fprintln(tw, "Issue Code\tIssue Name\tDue Date\tYears\tYield (%)")
	for _, p := range c.Points {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n",
			p.IssueCode, p.IssueName, utils.FormatDateJST(p.DueDate), p.YearsToMaturity, p.Yield.String())
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
