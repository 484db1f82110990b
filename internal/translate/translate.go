// Package translate renames the Japanese column headers of the JSDA
// reference price table to English.
package translate

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/seenimoa/jsdabond/internal/table"
)

// English column labels.
const (
	ColDate           = "Date"
	ColIssueType      = "Issue Type"
	ColIssueCode      = "Issue Code"
	ColIssueName      = "Issue Name"
	ColDueDate        = "Due Date"
	ColCouponRate     = "Coupon Rate"
	ColAvgYield       = "Average Compound Yield"
	ColAvgPrice       = "Average Price"
	ColAvgPriceChange = "Average Price Change"
	ColHighYield      = "Highest Compound Yield"
	ColHighPrice      = "Highest Price"
	ColLowYield       = "Lowest Compound Yield"
	ColLowPrice       = "Lowest Price"
	ColMedianYield    = "Median Compound Yield"
	ColMedianPrice    = "Median Price"
	ColReportingFirms = "Reporting Firms"
)

// JSDAColumns is the column order of the headerless daily CSV.
var JSDAColumns = []string{
	"日付",
	"銘柄種別",
	"銘柄コード",
	"銘柄名",
	"償還期日",
	"利率",
	"平均値複利",
	"平均値単価",
	"平均値単価前日比",
	"最高値複利",
	"最高値単価",
	"最低値複利",
	"最低値単価",
	"中央値複利",
	"中央値単価",
	"報告社数",
}

// headers maps normalized Japanese headers to English labels.
// No English label may appear as a key.
var headers = map[string]string{
	"日付":        ColDate,
	"売買参考統計値日付": ColDate,
	"銘柄種別":      ColIssueType,
	"種別":        ColIssueType,
	"銘柄コード":     ColIssueCode,
	"銘柄名":       ColIssueName,
	"銘柄":        ColIssueName,
	"償還期日":      ColDueDate,
	"償還日":       ColDueDate,
	"利率":        ColCouponRate,
	"クーポン":      ColCouponRate,
	"平均値複利":     ColAvgYield,
	"平均値単価":     ColAvgPrice,
	"平均値単価前日比":  ColAvgPriceChange,
	"前日比":       ColAvgPriceChange,
	"最高値複利":     ColHighYield,
	"最高値単価":     ColHighPrice,
	"最低値複利":     ColLowYield,
	"最低値単価":     ColLowPrice,
	"中央値複利":     ColMedianYield,
	"中央値単価":     ColMedianPrice,
	"報告社数":      ColReportingFirms,
}

var labels = func() map[string]bool {
	m := make(map[string]bool, len(headers))
	for _, v := range headers {
		m[v] = true
	}
	return m
}()

// normalize folds width variants and drops spaces so that
// "平均値 複利" and "平均値　複利" match "平均値複利".
func normalize(h string) string {
	h = norm.NFKC.String(h)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '　':
			return -1
		}
		return r
	}, h)
}

// Header returns the English label for h. Unknown headers come back
// unchanged with ok false. English labels come back unchanged with ok true.
func Header(h string) (label string, ok bool) {
	if labels[h] {
		return h, true
	}
	if en, found := headers[normalize(h)]; found {
		return en, true
	}
	return h, false
}

// IsKnown reports whether h is a recognised Japanese header or English label.
func IsKnown(h string) bool {
	_, ok := Header(h)
	return ok
}

// Headers translates hs position by position and lists the headers it
// could not map. The result has the same length and order as hs.
func Headers(hs []string) (out []string, unmapped []string) {
	out = make([]string, len(hs))
	for i, h := range hs {
		label, ok := Header(h)
		if !ok {
			unmapped = append(unmapped, h)
		}
		out[i] = label
	}
	return out, unmapped
}

// Table returns t with translated column names. Rows are untouched.
func Table(t *table.Table) (*table.Table, []string) {
	cols, unmapped := Headers(t.Columns)
	return t.WithColumns(cols), unmapped
}

// TableOptions returns parser options that recognise JSDA header rows and
// name headerless columns in JSDA order.
func TableOptions(minColumns int) table.Options {
	return table.Options{
		MinColumns:     minColumns,
		IsHeader:       IsKnown,
		DefaultColumns: JSDAColumns,
	}
}
