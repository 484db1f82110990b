// Package curve turns a translated JSDA price table into typed bond quotes,
// per-issuer yield curves and yield histories.
package curve

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/jsdabond/internal/table"
	"github.com/seenimoa/jsdabond/internal/translate"
	"github.com/seenimoa/jsdabond/pkg/models"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

// Quotes extracts one BondQuote per row of a translated table. Columns are
// looked up by English name, so missing columns leave fields empty.
// date is used when a row has no parseable Date cell.
func Quotes(t *table.Table, date time.Time) []models.BondQuote {
	if t.Empty() {
		return nil
	}
	col := func(name string) int { return t.ColumnIndex(name) }
	var (
		iDate      = col(translate.ColDate)
		iType      = col(translate.ColIssueType)
		iCode      = col(translate.ColIssueCode)
		iName      = col(translate.ColIssueName)
		iDue       = col(translate.ColDueDate)
		iCoupon    = col(translate.ColCouponRate)
		iAvgYield  = col(translate.ColAvgYield)
		iAvgPrice  = col(translate.ColAvgPrice)
		iAvgChange = col(translate.ColAvgPriceChange)
		iHighYield = col(translate.ColHighYield)
		iHighPrice = col(translate.ColHighPrice)
		iLowYield  = col(translate.ColLowYield)
		iLowPrice  = col(translate.ColLowPrice)
		iMedYield  = col(translate.ColMedianYield)
		iMedPrice  = col(translate.ColMedianPrice)
		iFirms     = col(translate.ColReportingFirms)
	)

	fallback := utils.DateOnly(date)
	out := make([]models.BondQuote, 0, len(t.Rows))
	for _, row := range t.Rows {
		cell := func(i int) string {
			if i < 0 {
				return ""
			}
			return row[i]
		}
		q := models.BondQuote{
			Date:           fallback,
			IssueType:      cell(iType),
			IssueCode:      cell(iCode),
			IssueName:      cell(iName),
			CouponRate:     ParseDecimal(cell(iCoupon)),
			AvgYield:       ParseDecimal(cell(iAvgYield)),
			AvgPrice:       ParseDecimal(cell(iAvgPrice)),
			AvgPriceChange: ParseDecimal(cell(iAvgChange)),
			HighYield:      ParseDecimal(cell(iHighYield)),
			HighPrice:      ParseDecimal(cell(iHighPrice)),
			LowYield:       ParseDecimal(cell(iLowYield)),
			LowPrice:       ParseDecimal(cell(iLowPrice)),
			MedianYield:    ParseDecimal(cell(iMedYield)),
			MedianPrice:    ParseDecimal(cell(iMedPrice)),
		}
		if d, ok := ParseDate(cell(iDate)); ok {
			q.Date = d
		}
		if d, ok := ParseDate(cell(iDue)); ok {
			q.DueDate = d
		}
		if n, err := strconv.Atoi(strings.TrimSpace(cell(iFirms))); err == nil {
			q.ReportingFirms = n
		}
		out = append(out, q)
	}
	return out
}

// ParseDecimal reads a numeric cell. Blank cells, dashes and anything
// that is not a number give a null value. Thousands separators are ignored.
func ParseDecimal(s string) decimal.NullDecimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	switch s {
	case "", "-", "－", "―", "—", "*":
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

var dateLayouts = []string{"20060102", "2006/01/02", "2006/1/2", "2006-01-02"}

// ParseDate reads a date cell in any of the layouts seen in JSDA files.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, s, utils.JST); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// IsNumericName reports whether an issue name consists only of digits.
// Such rows carry codes in the name column and are not real issuers.
func IsNumericName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
