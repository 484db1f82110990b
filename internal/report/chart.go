// Package report renders the yield data as SVG charts, a plain-text table
// and the HTML viewer page.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/jsdabond/internal/analysis/curve"
	"github.com/seenimoa/jsdabond/pkg/models"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// SVG Chart Generator
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 800)
	Height       int    // SVG height in pixels (default: 400)
	MarginTop    int    // top margin (default: 40)
	MarginRight  int    // right margin (default: 40)
	MarginBottom int    // bottom margin (default: 55)
	MarginLeft   int    // left margin (default: 70)
	BgColor      string // background color (default: "#ffffff")
	GridColor    string // grid line color (default: "#e8e8e8")
	TextColor    string // axis label color (default: "#333333")
	LineColor    string // primary series color (default: "#2563eb")
	FontSize     int    // axis label font size (default: 11)
	Title        string // chart title
	XLabel       string // x axis caption
	YLabel       string // y axis caption
	YDecimals    int    // decimals on y tick labels (default: 2)
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       400,
		MarginTop:    40,
		MarginRight:  40,
		MarginBottom: 55,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		LineColor:    "#2563eb",
		FontSize:     11,
		YDecimals:    2,
	}
}

// Sized returns the defaults with the given dimensions. Non-positive
// values keep the default.
func Sized(width, height int) ChartConfig {
	cfg := DefaultChartConfig()
	if width > 0 {
		cfg.Width = width
	}
	if height > 0 {
		cfg.Height = height
	}
	return cfg
}

// withDefaults fills the zero fields of c from DefaultChartConfig.
func (c ChartConfig) withDefaults() ChartConfig {
	d := DefaultChartConfig()
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.MarginTop == 0 && c.MarginRight == 0 && c.MarginBottom == 0 && c.MarginLeft == 0 {
		c.MarginTop, c.MarginRight, c.MarginBottom, c.MarginLeft = d.MarginTop, d.MarginRight, d.MarginBottom, d.MarginLeft
	}
	if c.BgColor == "" {
		c.BgColor = d.BgColor
	}
	if c.GridColor == "" {
		c.GridColor = d.GridColor
	}
	if c.TextColor == "" {
		c.TextColor = d.TextColor
	}
	if c.LineColor == "" {
		c.LineColor = d.LineColor
	}
	if c.FontSize == 0 {
		c.FontSize = d.FontSize
	}
	if c.YDecimals == 0 {
		c.YDecimals = d.YDecimals
	}
	return c
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// ════════════════════════════════════════════════════════════════════
// Yield Curve
// ════════════════════════════════════════════════════════════════════

// YieldCurveChart plots Average Compound Yield against years to maturity,
// one marker per bond joined in maturity order.
func YieldCurveChart(c *models.YieldCurve, cfg ChartConfig) string {
	cfg = cfg.withDefaults()
	if c == nil || len(c.Points) == 0 {
		return emptySVG(cfg, "No data")
	}
	if cfg.Title == "" {
		cfg.Title = fmt.Sprintf("Yield curve for %s (%s)", c.Issue, utils.FormatDateJST(c.Date))
	}
	if cfg.XLabel == "" {
		cfg.XLabel = "Years to maturity"
	}
	if cfg.YLabel == "" {
		cfg.YLabel = "Yield (%)"
	}

	minX, maxX, minY, maxY := c.Bounds()
	minX, maxX = pad(math.Min(minX, 0), maxX, 0.02)
	minY, maxY = pad(minY, maxY, 0.1)

	px, py, pw, ph := cfg.plotArea()
	toX := func(v float64) float64 { return float64(px) + (v-minX)/(maxX-minX)*float64(pw) }
	toY := func(v float64) float64 { return float64(py+ph) - (v-minY)/(maxY-minY)*float64(ph) }

	var sb strings.Builder
	writeFrame(&sb, cfg)
	writeYGrid(&sb, cfg, minY, maxY, 5)

	// X-axis ticks on whole years
	step := niceStep(maxX-minX, 8)
	for v := math.Ceil(minX/step) * step; v <= maxX+1e-9; v += step {
		x := toX(v)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="%s" stroke-dasharray="3,3"/>`,
			x, py, x, py+ph, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			x, py+ph+16, cfg.FontSize, cfg.TextColor, trimFloat(v)))
	}

	var path []string
	for i, p := range c.Points {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		path = append(path, fmt.Sprintf("%s%.1f,%.1f", cmd, toX(p.YearsToMaturity), toY(p.Yield.InexactFloat64())))
	}
	if len(path) > 1 {
		sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`,
			strings.Join(path, " "), cfg.LineColor))
	}
	for _, p := range c.Points {
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3.5" fill="%s"><title>%s %s: %s%% at %.2fy</title></circle>`,
			toX(p.YearsToMaturity), toY(p.Yield.InexactFloat64()), cfg.LineColor,
			escapeXML(p.IssueName), utils.FormatDateJST(p.DueDate), p.Yield.String(), p.YearsToMaturity))
	}

	writeAxisLabels(&sb, cfg)
	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Line Chart
// ════════════════════════════════════════════════════════════════════

// LineChartSeries represents a named data series for line charts.
// NaN values leave a gap.
type LineChartSeries struct {
	Name   string
	Values []float64
	Color  string // hex color (optional, auto-assigned if empty)
}

// LineChart generates an SVG line chart with one or more series.
// Labels are optional X-axis labels corresponding to data points.
func LineChart(series []LineChartSeries, labels []string, cfg ChartConfig) string {
	cfg = cfg.withDefaults()
	if len(series) == 0 {
		return emptySVG(cfg, "No data")
	}

	// Find global min/max
	minVal, maxVal := math.MaxFloat64, -math.MaxFloat64
	maxLen := 0
	for _, s := range series {
		if len(s.Values) > maxLen {
			maxLen = len(s.Values)
		}
		for _, v := range s.Values {
			if math.IsNaN(v) {
				continue
			}
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	if maxLen == 0 || minVal > maxVal {
		return emptySVG(cfg, "No data")
	}
	minVal, maxVal = pad(minVal, maxVal, 0.05)

	px, py, pw, ph := cfg.plotArea()
	toX := func(i int) float64 {
		if maxLen == 1 {
			return float64(px) + float64(pw)/2
		}
		return float64(px) + float64(i)*float64(pw)/float64(maxLen-1)
	}
	toY := func(v float64) float64 { return float64(py+ph) - (v-minVal)/(maxVal-minVal)*float64(ph) }

	var sb strings.Builder
	writeFrame(&sb, cfg)
	writeYGrid(&sb, cfg, minVal, maxVal, 5)

	// Draw series
	defaultColors := []string{"#2563eb", "#ea580c", "#16a34a", "#db2777", "#7c3aed", "#0891b2"}
	for si, s := range series {
		color := s.Color
		if color == "" {
			color = defaultColors[si%len(defaultColors)]
		}

		var pathParts []string
		for i, v := range s.Values {
			if math.IsNaN(v) {
				continue
			}
			cmd := "L"
			if len(pathParts) == 0 {
				cmd = "M"
			}
			pathParts = append(pathParts, fmt.Sprintf("%s%.1f,%.1f", cmd, toX(i), toY(v)))
		}
		switch {
		case len(pathParts) > 1:
			sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`,
				strings.Join(pathParts, " "), color))
		case len(pathParts) == 1:
			for i, v := range s.Values {
				if !math.IsNaN(v) {
					sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`, toX(i), toY(v), color))
				}
			}
		}

		// Legend
		ly := py + 10 + si*16
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`,
			px+10, ly, px+30, ly, color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`,
			px+35, ly+4, cfg.TextColor, escapeXML(s.Name)))
	}

	// X-axis labels
	if len(labels) > 0 {
		interval := maxLen / 6
		if interval < 1 {
			interval = 1
		}
		for i := 0; i < len(labels) && i < maxLen; i += interval {
			sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
				toX(i), py+ph+16, cfg.FontSize-1, cfg.TextColor, escapeXML(labels[i])))
		}
	}

	writeAxisLabels(&sb, cfg)
	sb.WriteString("</svg>")
	return sb.String()
}

// HistoryChart draws one line per bond over the loaded trade dates.
func HistoryChart(points []models.HistoryPoint, issue string, cfg ChartConfig) string {
	cfg = cfg.withDefaults()
	if len(points) == 0 {
		return emptySVG(cfg, "No data")
	}
	if cfg.Title == "" {
		cfg.Title = "Yield history for " + issue
	}
	if cfg.YLabel == "" {
		cfg.YLabel = "Yield (%)"
	}

	// Column per distinct date, in order.
	index := map[string]int{}
	var labels []string
	for _, p := range points {
		d := utils.FormatDateJST(p.Date)
		if _, ok := index[d]; !ok {
			index[d] = len(labels)
			labels = append(labels, p.Date.Format("01/02"))
		}
	}

	keys, byBond := curve.SeriesByBond(points)
	series := make([]LineChartSeries, 0, len(keys))
	for _, k := range keys {
		vals := make([]float64, len(labels))
		for i := range vals {
			vals[i] = math.NaN()
		}
		pts := byBond[k]
		for _, p := range pts {
			vals[index[utils.FormatDateJST(p.Date)]] = p.Yield.InexactFloat64()
		}
		name := k
		if pts[0].IssueCode != "" {
			name = fmt.Sprintf("%s (%.1fy)", k, pts[len(pts)-1].YearsToMaturity)
		}
		series = append(series, LineChartSeries{Name: name, Values: vals})
	}
	return LineChart(series, labels, cfg)
}

// ════════════════════════════════════════════════════════════════════
// SVG Helpers
// ════════════════════════════════════════════════════════════════════

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

// writeFrame writes the header, background, title and plot border.
func writeFrame(sb *strings.Builder, cfg ChartConfig) {
	px, py, pw, ph := cfg.plotArea()
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="#ffffff" stroke="#cccccc"/>`,
		px, py, pw, ph))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="22" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))
}

func writeYGrid(sb *strings.Builder, cfg ChartConfig, minVal, maxVal float64, lines int) {
	px, py, pw, ph := cfg.plotArea()
	for i := 0; i <= lines; i++ {
		val := minVal + (maxVal-minVal)*float64(i)/float64(lines)
		y := py + ph - int(float64(ph)*float64(i)/float64(lines))
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">%.*f</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, cfg.YDecimals, val))
	}
}

func writeAxisLabels(sb *strings.Builder, cfg ChartConfig) {
	px, py, pw, ph := cfg.plotArea()
	if cfg.XLabel != "" {
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			px+pw/2, cfg.Height-10, cfg.FontSize+1, cfg.TextColor, escapeXML(cfg.XLabel)))
	}
	if cfg.YLabel != "" {
		cx, cy := 16, py+ph/2
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="middle" transform="rotate(-90,%d,%d)">%s</text>`,
			cx, cy, cfg.FontSize+1, cfg.TextColor, cx, cy, escapeXML(cfg.YLabel)))
	}
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

// pad widens [lo, hi] by frac of its span, or by 1 for a flat range.
func pad(lo, hi, frac float64) (float64, float64) {
	span := hi - lo
	if span < 1e-9 {
		return lo - 0.5, hi + 0.5
	}
	return lo - span*frac, hi + span*frac
}

// niceStep picks a 1/2/5 x 10^n step giving at most maxTicks ticks over span.
func niceStep(span float64, maxTicks int) float64 {
	raw := span / float64(maxTicks)
	if raw <= 0 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if raw <= m*mag {
			return m * mag
		}
	}
	return 10 * mag
}

func trimFloat(v float64) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
