package models

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/jsdabond/pkg/utils"
)

func TestBondQuoteYearsToMaturity(t *testing.T) {
	asOf, _ := utils.ParseDateJST("2026-10-16")
	due, _ := utils.ParseDateJST("2031-10-15")
	q := BondQuote{IssueName: "トヨタ自動車", DueDate: due}

	want := float64(utils.DaysBetween(asOf, due)) / 365
	if got := q.YearsToMaturity(asOf); math.Abs(got-want) > 1e-12 {
		t.Errorf("YearsToMaturity: got %f, want %f", got, want)
	}
	if (BondQuote{}).YearsToMaturity(asOf) != 0 {
		t.Error("unknown due date should yield 0")
	}
}

func TestYieldCurveBounds(t *testing.T) {
	c := YieldCurve{
		Date: time.Now(),
		Points: []CurvePoint{
			{YearsToMaturity: 1.5, Yield: decimal.RequireFromString("0.45")},
			{YearsToMaturity: 0.3, Yield: decimal.RequireFromString("0.12")},
			{YearsToMaturity: 9.8, Yield: decimal.RequireFromString("1.31")},
		},
	}
	minX, maxX, minY, maxY := c.Bounds()
	if minX != 0.3 || maxX != 9.8 {
		t.Errorf("x bounds: got [%f, %f]", minX, maxX)
	}
	if minY != 0.12 || maxY != 1.31 {
		t.Errorf("y bounds: got [%f, %f]", minY, maxY)
	}

	empty := YieldCurve{}
	a, b, cc, d := empty.Bounds()
	if a != 0 || b != 0 || cc != 0 || d != 0 {
		t.Error("empty curve bounds should be zero")
	}
}
