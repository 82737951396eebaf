package localdate

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical string form of a calendar date.
const Layout = "2006-01-02"

// Key identifies a calendar day independently of time-of-day and location.
type Key struct {
	Year  int
	Month time.Month
	Day   int
}

// KeyOf returns the calendar day of t as seen in t's own location.
func KeyOf(t time.Time) Key {
	y, m, d := t.Date()
	return Key{Year: y, Month: m, Day: d}
}

func (k Key) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

// Parse parses a YYYY-MM-DD string into local midnight of that day.
func Parse(s string) (time.Time, error) {
	return ParseIn(s, time.Local)
}

// ParseIn parses a YYYY-MM-DD string into midnight of that day in loc.
// A trailing time component ("2025-01-31T23:00:00Z") is ignored: only the
// written calendar day is kept, it is never converted between zones.
func ParseIn(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	value := strings.TrimSpace(s)
	if len(value) > len(Layout) && (value[len(Layout)] == 'T' || value[len(Layout)] == ' ') {
		value = value[:len(Layout)]
	}
	t, err := time.ParseInLocation(Layout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Format returns the YYYY-MM-DD form of t in t's own location.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Anchor keeps the calendar day of t as written and returns midnight of that day in loc.
// Unlike t.In(loc) it never moves the instant across a day boundary.
func Anchor(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Today returns local midnight of now in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return Midnight(now.In(loc))
}

// AddDays moves t by n calendar days and returns midnight of the resulting day.
// Unlike t.Add(n*24h) it is not affected by DST transitions.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, t.Location())
}

// AddMonthsClamped moves t by n calendar months keeping the day of month.
// When the target month is shorter, the last day of that month is used
// (Jan 31 + 1 month = Feb 28/29).
func AddMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := DaysInMonth(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// DaysInMonth returns the number of days of the month containing t.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the number of calendar days from a to b (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// SameDay reports whether a and b fall on the same calendar day in their own locations.
func SameDay(a, b time.Time) bool {
	return KeyOf(a) == KeyOf(b)
}

// MonthStart returns midnight of the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthEnd returns midnight of the last day of t's month.
func MonthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), DaysInMonth(t), 0, 0, 0, 0, t.Location())
}

// WeekStart returns midnight of the first day of the week containing date.
// Invalid week start days fall back to Monday.
func WeekStart(date time.Time, weekStartDay time.Weekday) time.Time {
	if weekStartDay < time.Sunday || weekStartDay > time.Saturday {
		weekStartDay = time.Monday
	}
	delta := (int(date.Weekday()) - int(weekStartDay) + 7) % 7
	return AddDays(date, -delta)
}
