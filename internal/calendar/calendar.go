// Package calendar knows which days JSDA publishes reference prices:
// weekdays that are neither Japanese national holidays nor year-end closures.
package calendar

import (
	"sort"
	"sync"
	"time"

	"github.com/seenimoa/jsdabond/pkg/models"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

const (
	SourceBuiltin = "builtin"
	SourceCAO     = "cao"

	yearEndClosure = "年末年始休業日"
)

// builtin national holidays. Later years come from the Cabinet Office CSV.
var builtin = map[string]string{
	"2025-01-01": "元日",
	"2025-01-13": "成人の日",
	"2025-02-11": "建国記念の日",
	"2025-02-23": "天皇誕生日",
	"2025-02-24": "休日",
	"2025-03-20": "春分の日",
	"2025-04-29": "昭和の日",
	"2025-05-03": "憲法記念日",
	"2025-05-04": "みどりの日",
	"2025-05-05": "こどもの日",
	"2025-05-06": "休日",
	"2025-07-21": "海の日",
	"2025-08-11": "山の日",
	"2025-09-15": "敬老の日",
	"2025-09-23": "秋分の日",
	"2025-10-13": "スポーツの日",
	"2025-11-03": "文化の日",
	"2025-11-23": "勤労感謝の日",
	"2025-11-24": "休日",

	"2026-01-01": "元日",
	"2026-01-12": "成人の日",
	"2026-02-11": "建国記念の日",
	"2026-02-23": "天皇誕生日",
	"2026-03-20": "春分の日",
	"2026-04-29": "昭和の日",
	"2026-05-03": "憲法記念日",
	"2026-05-04": "みどりの日",
	"2026-05-05": "こどもの日",
	"2026-05-06": "休日",
	"2026-07-20": "海の日",
	"2026-08-11": "山の日",
	"2026-09-21": "敬老の日",
	"2026-09-22": "休日",
	"2026-09-23": "秋分の日",
	"2026-10-12": "スポーツの日",
	"2026-11-03": "文化の日",
	"2026-11-23": "勤労感謝の日",
}

// Calendar is safe for concurrent use.
type Calendar struct {
	mu       sync.RWMutex
	holidays map[string]models.Holiday
}

// New returns a calendar seeded with the built-in holiday table.
func New() *Calendar {
	c := &Calendar{holidays: make(map[string]models.Holiday, len(builtin))}
	for day, name := range builtin {
		d, _ := utils.ParseDateJST(day)
		c.holidays[day] = models.Holiday{Date: d, Name: name, Source: SourceBuiltin}
	}
	return c
}

// Merge adds holidays, replacing any entry already known for the same day.
// It returns the number of days that were not known before.
func (c *Calendar) Merge(hs []models.Holiday) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	added := 0
	for _, h := range hs {
		key := utils.FormatDateJST(h.Date)
		if _, ok := c.holidays[key]; !ok {
			added++
		}
		h.Date = utils.DateOnly(h.Date)
		c.holidays[key] = h
	}
	return added
}

// Holiday returns the holiday or closure on t, if any.
func (c *Calendar) Holiday(t time.Time) (models.Holiday, bool) {
	d := utils.DateOnly(t)
	if h, ok := c.lookup(d); ok {
		return h, true
	}
	if isYearEnd(d) {
		return models.Holiday{Date: d, Name: yearEndClosure, Source: SourceBuiltin}, true
	}
	return models.Holiday{}, false
}

// IsBusinessDay reports whether JSDA publishes prices for t.
func (c *Calendar) IsBusinessDay(t time.Time) bool {
	return c.Reason(t) == ""
}

// Reason explains why t is not a business day, or returns "" if it is.
func (c *Calendar) Reason(t time.Time) string {
	d := utils.DateOnly(t)
	if utils.IsWeekend(d) {
		return d.Weekday().String()
	}
	if h, ok := c.Holiday(d); ok {
		return "holiday (" + h.Name + ")"
	}
	return ""
}

// OnOrBefore returns t itself when it is a business day, else the closest earlier one.
func (c *Calendar) OnOrBefore(t time.Time) time.Time {
	d := utils.DateOnly(t)
	for !c.IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// PrevBusinessDay returns the business day strictly before t.
func (c *Calendar) PrevBusinessDay(t time.Time) time.Time {
	return c.OnOrBefore(utils.DateOnly(t).AddDate(0, 0, -1))
}

// BusinessDays lists business days in [from, to], oldest first.
func (c *Calendar) BusinessDays(from, to time.Time) []time.Time {
	var days []time.Time
	for d := utils.DateOnly(from); !d.After(utils.DateOnly(to)); d = d.AddDate(0, 0, 1) {
		if c.IsBusinessDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// Holidays returns the known holidays and closures of year, in date order.
func (c *Calendar) Holidays(year int) []models.Holiday {
	c.mu.RLock()
	var out []models.Holiday
	for _, h := range c.holidays {
		if h.Date.Year() == year {
			out = append(out, h)
		}
	}
	c.mu.RUnlock()

	for _, md := range [][2]int{{1, 2}, {1, 3}, {12, 31}} {
		d := time.Date(year, time.Month(md[0]), md[1], 0, 0, 0, 0, utils.JST)
		if _, dup := c.lookup(d); !dup {
			out = append(out, models.Holiday{Date: d, Name: yearEndClosure, Source: SourceBuiltin})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (c *Calendar) lookup(d time.Time) (models.Holiday, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.holidays[utils.FormatDateJST(d)]
	return h, ok
}

func isYearEnd(d time.Time) bool {
	switch {
	case d.Month() == time.December && d.Day() == 31:
		return true
	case d.Month() == time.January && (d.Day() == 2 || d.Day() == 3):
		return true
	}
	return false
}
