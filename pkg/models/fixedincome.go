package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/jsdabond/pkg/utils"
)

// --- Fixed Income / Corporate bonds ---

// BondQuote is one row of the JSDA reference statistical prices table.
// Numeric fields are null when the source cell is blank or not a number.
type BondQuote struct {
	Date           time.Time           `json:"date"`
	IssueType      string              `json:"issue_type,omitempty"`
	IssueCode      string              `json:"issue_code,omitempty"`
	IssueName      string              `json:"issue_name"`
	DueDate        time.Time           `json:"due_date"`
	CouponRate     decimal.NullDecimal `json:"coupon_rate"`
	AvgYield       decimal.NullDecimal `json:"average_compound_yield"`
	AvgPrice       decimal.NullDecimal `json:"average_price"`
	AvgPriceChange decimal.NullDecimal `json:"average_price_change"`
	HighYield      decimal.NullDecimal `json:"highest_compound_yield"`
	HighPrice      decimal.NullDecimal `json:"highest_price"`
	LowYield       decimal.NullDecimal `json:"lowest_compound_yield"`
	LowPrice       decimal.NullDecimal `json:"lowest_price"`
	MedianYield    decimal.NullDecimal `json:"median_compound_yield"`
	MedianPrice    decimal.NullDecimal `json:"median_price"`
	ReportingFirms int                 `json:"reporting_firms,omitempty"`
}

// YearsToMaturity returns (due date - asOf) in days divided by 365.
// It returns 0 when the due date is unknown.
func (q BondQuote) YearsToMaturity(asOf time.Time) float64 {
	if q.DueDate.IsZero() {
		return 0
	}
	return utils.YearsBetween(asOf, q.DueDate)
}

// CurvePoint is one bond placed on a yield curve.
type CurvePoint struct {
	IssueCode       string          `json:"issue_code,omitempty"`
	IssueName       string          `json:"issue_name"`
	DueDate         time.Time       `json:"due_date"`
	YearsToMaturity float64         `json:"years_to_maturity"`
	Yield           decimal.Decimal `json:"yield"`
}

// YieldCurve is the set of points for one issuer on one trade date,
// ordered by YearsToMaturity ascending.
type YieldCurve struct {
	Date   time.Time    `json:"date"`
	Issue  string       `json:"issue"`
	Prefix bool         `json:"prefix,omitempty"`
	Points []CurvePoint `json:"points"`
}

// Bounds returns the min/max of maturity (x) and yield (y) across points.
// All values are zero for an empty curve.
func (c *YieldCurve) Bounds() (minX, maxX, minY, maxY float64) {
	for i, p := range c.Points {
		y := p.Yield.InexactFloat64()
		if i == 0 {
			minX, maxX, minY, maxY = p.YearsToMaturity, p.YearsToMaturity, y, y
			continue
		}
		if p.YearsToMaturity < minX {
			minX = p.YearsToMaturity
		}
		if p.YearsToMaturity > maxX {
			maxX = p.YearsToMaturity
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	return
}

// HistoryPoint is the yield of one bond on one trade date.
type HistoryPoint struct {
	Date            time.Time       `json:"date"`
	IssueCode       string          `json:"issue_code,omitempty"`
	IssueName       string          `json:"issue_name"`
	YearsToMaturity float64         `json:"years_to_maturity"`
	Yield           decimal.Decimal `json:"yield"`
}
