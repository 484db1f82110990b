package utils

import (
	"time"
)

// JST is the Japan Standard Time location (UTC+9).
var JST *time.Location

func init() {
	var err error
	JST, err = time.LoadLocation("Asia/Tokyo")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		JST = time.FixedZone("JST", 9*60*60)
	}
}

// DateLayout is the ISO date format used for flags, query parameters and JSON.
const DateLayout = "2006-01-02"

// NowJST returns the current time in JST.
func NowJST() time.Time {
	return time.Now().In(JST)
}

// TodayJST returns midnight of the current JST calendar day.
func TodayJST() time.Time {
	return DateOnly(NowJST())
}

// DateOnly truncates t to midnight of its calendar day in JST.
func DateOnly(t time.Time) time.Time {
	t = t.In(JST)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, JST)
}

// ParseDateJST parses a date string in "2006-01-02" format and returns it in JST.
func ParseDateJST(dateStr string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, dateStr, JST)
}

// ParseCompactDateJST parses a "20060102" date as used inside JSDA files.
func ParseCompactDateJST(dateStr string) (time.Time, error) {
	return time.ParseInLocation("20060102", dateStr, JST)
}

// FormatDateJST formats a time.Time to "2006-01-02" in JST.
func FormatDateJST(t time.Time) string {
	return t.In(JST).Format(DateLayout)
}

// FormatDateTimeJST formats a time.Time to "2006-01-02 15:04:05 JST".
func FormatDateTimeJST(t time.Time) string {
	return t.In(JST).Format("2006-01-02 15:04:05 JST")
}

// DaysBetween returns the number of calendar days from a to b (negative if b is earlier).
func DaysBetween(a, b time.Time) int {
	a, b = DateOnly(a), DateOnly(b)
	return int(b.Sub(a).Round(24*time.Hour) / (24 * time.Hour))
}

// YearsBetween returns the day count from a to b divided by 365.
func YearsBetween(a, b time.Time) float64 {
	return float64(DaysBetween(a, b)) / 365.0
}

// IsWeekend reports whether t falls on Saturday or Sunday in JST.
func IsWeekend(t time.Time) bool {
	wd := t.In(JST).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
