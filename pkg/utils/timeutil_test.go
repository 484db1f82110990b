package utils

import (
	"math"
	"testing"
	"time"
)

func TestNowJST(t *testing.T) {
	now := NowJST()
	if now.Location() != JST {
		t.Errorf("NowJST location: got %v, want JST", now.Location())
	}
}

func TestTodayJSTIsMidnight(t *testing.T) {
	d := TodayJST()
	if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 {
		t.Errorf("TodayJST should be midnight, got %v", d)
	}
}

func TestDateOnlyConvertsZone(t *testing.T) {
	// 2026-10-16 20:00 UTC is already 2026-10-17 in Tokyo.
	in := time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC)
	got := DateOnly(in)
	if FormatDateJST(got) != "2026-10-17" {
		t.Errorf("DateOnly: got %s, want 2026-10-17", FormatDateJST(got))
	}
}

func TestParseDateJST(t *testing.T) {
	d, err := ParseDateJST("2026-10-16")
	if err != nil {
		t.Fatalf("ParseDateJST: %v", err)
	}
	if d.Year() != 2026 || d.Month() != time.October || d.Day() != 16 {
		t.Errorf("ParseDateJST: got %v", d)
	}
	if _, err := ParseDateJST("2026/10/16"); err == nil {
		t.Error("expected error for slash format")
	}
}

func TestParseCompactDateJST(t *testing.T) {
	d, err := ParseCompactDateJST("20310320")
	if err != nil {
		t.Fatalf("ParseCompactDateJST: %v", err)
	}
	if FormatDateJST(d) != "2031-03-20" {
		t.Errorf("got %s", FormatDateJST(d))
	}
}

func TestDaysAndYearsBetween(t *testing.T) {
	a, _ := ParseDateJST("2026-01-01")
	b, _ := ParseDateJST("2027-01-01")
	if got := DaysBetween(a, b); got != 365 {
		t.Errorf("DaysBetween: got %d, want 365", got)
	}
	if got := YearsBetween(a, b); math.Abs(got-1) > 1e-9 {
		t.Errorf("YearsBetween: got %f, want 1", got)
	}
	if got := DaysBetween(b, a); got != -365 {
		t.Errorf("DaysBetween reversed: got %d, want -365", got)
	}
}

func TestIsWeekend(t *testing.T) {
	sat, _ := ParseDateJST("2026-10-17")
	fri, _ := ParseDateJST("2026-10-16")
	if !IsWeekend(sat) {
		t.Error("2026-10-17 is a Saturday")
	}
	if IsWeekend(fri) {
		t.Error("2026-10-16 is a Friday")
	}
}

func TestFormatDateTimeJST(t *testing.T) {
	in := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	if got := FormatDateTimeJST(in); got != "2026-10-16 09:00:00 JST" {
		t.Errorf("FormatDateTimeJST: got %q", got)
	}
}
