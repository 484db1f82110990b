package curve

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/jsdabond/pkg/models"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

var (
	// ErrNoIssues means the table holds no usable issue names.
	ErrNoIssues = errors.New("no bond names found in the data")
	// ErrNoBondData means no row of the selected issue has a yield and due date.
	ErrNoBondData = errors.New("no data available for the selected bond")
)

// Filter selects the rows of one issuer.
type Filter struct {
	Issue  string `json:"issue"`
	Prefix bool   `json:"prefix,omitempty"` // match names starting with Issue instead of equal to it
}

// Match reports whether an issue name passes the filter.
func (f Filter) Match(name string) bool {
	want := strings.TrimSpace(f.Issue)
	if want == "" {
		return false
	}
	name = strings.TrimSpace(name)
	if f.Prefix {
		return strings.HasPrefix(name, want)
	}
	return name == want
}

// Issues lists the distinct usable issue names in order of first appearance.
// Empty and all-digit names are left out.
func Issues(quotes []models.BondQuote) []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range quotes {
		name := strings.TrimSpace(q.IssueName)
		if name == "" || IsNumericName(name) || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// IssueSummary describes one issuer on a trade date.
type IssueSummary struct {
	Name     string              `json:"name"`
	Bonds    int                 `json:"bonds"`
	MinYield decimal.NullDecimal `json:"min_yield"`
	MaxYield decimal.NullDecimal `json:"max_yield"`
}

// Summaries returns one summary per issue in Issues order.
func Summaries(quotes []models.BondQuote) []IssueSummary {
	names := Issues(quotes)
	idx := make(map[string]int, len(names))
	out := make([]IssueSummary, len(names))
	for i, n := range names {
		idx[n] = i
		out[i].Name = n
	}
	for _, q := range quotes {
		i, ok := idx[strings.TrimSpace(q.IssueName)]
		if !ok {
			continue
		}
		s := &out[i]
		s.Bonds++
		if !q.AvgYield.Valid {
			continue
		}
		y := q.AvgYield.Decimal
		if !s.MinYield.Valid || y.LessThan(s.MinYield.Decimal) {
			s.MinYield = decimal.NewNullDecimal(y)
		}
		if !s.MaxYield.Valid || y.GreaterThan(s.MaxYield.Decimal) {
			s.MaxYield = decimal.NewNullDecimal(y)
		}
	}
	return out
}

// Build places the bonds selected by f on a yield curve for date.
// Points are sorted by years to maturity; rows without a yield or due date,
// or already past maturity, are skipped.
func Build(quotes []models.BondQuote, date time.Time, f Filter) (*models.YieldCurve, error) {
	if len(Issues(quotes)) == 0 {
		return nil, ErrNoIssues
	}
	asOf := utils.DateOnly(date)

	c := &models.YieldCurve{Date: asOf, Issue: strings.TrimSpace(f.Issue), Prefix: f.Prefix}
	for _, q := range quotes {
		if !f.Match(q.IssueName) || !q.AvgYield.Valid || q.DueDate.IsZero() {
			continue
		}
		years := q.YearsToMaturity(asOf)
		if years < 0 {
			continue
		}
		c.Points = append(c.Points, models.CurvePoint{
			IssueCode:       q.IssueCode,
			IssueName:       strings.TrimSpace(q.IssueName),
			DueDate:         q.DueDate,
			YearsToMaturity: years,
			Yield:           q.AvgYield.Decimal,
		})
	}
	if len(c.Points) == 0 {
		return nil, ErrNoBondData
	}

	sort.SliceStable(c.Points, func(i, j int) bool {
		return c.Points[i].YearsToMaturity < c.Points[j].YearsToMaturity
	})
	return c, nil
}

// Snapshot is the quotes of one trade date.
type Snapshot struct {
	Date   time.Time
	Quotes []models.BondQuote
}

// History collects the yield of every bond matching f on each snapshot,
// ordered by date and then by maturity.
func History(snapshots []Snapshot, f Filter) []models.HistoryPoint {
	var out []models.HistoryPoint
	for _, s := range snapshots {
		asOf := utils.DateOnly(s.Date)
		for _, q := range s.Quotes {
			if !f.Match(q.IssueName) || !q.AvgYield.Valid {
				continue
			}
			out = append(out, models.HistoryPoint{
				Date:            asOf,
				IssueCode:       q.IssueCode,
				IssueName:       strings.TrimSpace(q.IssueName),
				YearsToMaturity: q.YearsToMaturity(asOf),
				Yield:           q.AvgYield.Decimal,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].YearsToMaturity < out[j].YearsToMaturity
	})
	return out
}

// SeriesByBond groups history points by issue code (or name when the code
// is blank) so each bond becomes one line. Keys are returned in first-seen order.
func SeriesByBond(points []models.HistoryPoint) (keys []string, series map[string][]models.HistoryPoint) {
	series = make(map[string][]models.HistoryPoint)
	for _, p := range points {
		key := p.IssueCode
		if key == "" {
			key = p.IssueName
		}
		if _, ok := series[key]; !ok {
			keys = append(keys, key)
		}
		series[key] = append(series[key], p)
	}
	return keys, series
}
