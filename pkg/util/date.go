package util

import "time"

// DateLayout is the canonical calendar format used in cache files and API payloads.
const DateLayout = "2006-01-02"

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsWeekend reports Saturday or Sunday. Public holidays are not modeled; a
// request the day after a holiday may see data one trading day older than the
// true latest session.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// LatestTradingDay returns the most recent non-weekend date on or before t.
func LatestTradingDay(t time.Time) time.Time {
	d := Day(t)
	for IsWeekend(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// NextBusinessDays returns the n business days strictly after last.
func NextBusinessDays(last time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	d := Day(last)
	for len(out) < n {
		d = d.AddDate(0, 0, 1)
		if IsWeekend(d) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// PeriodDays maps a lookback period label to its span in calendar days.
// Unknown labels fall back to one year.
func PeriodDays(period string) int {
	switch period {
	case "6mo":
		return 180
	case "1y":
		return 365
	case "2y":
		return 730
	case "5y":
		return 1825
	default:
		return 365
	}
}

// ParseDate parses the canonical YYYY-MM-DD form, falling back to the two
// date shapes seen in older cache files.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range []string{DateLayout, "2006/01/02", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}
	return time.Time{}, false
}
