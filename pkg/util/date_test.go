package util

import (
	"testing"
	"time"
)

func TestParseDateCanonical(t *testing.T) {
	got, ok := ParseDate("2025-03-14")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Format(DateLayout) != "2025-03-14" {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateLegacyLayouts(t *testing.T) {
	for _, s := range []string{"2025/03/14", "20250314"} {
		got, ok := ParseDate(s)
		if !ok {
			t.Fatalf("expected ok for %q", s)
		}
		if got.Format(DateLayout) != "2025-03-14" {
			t.Fatalf("unexpected date %v for %q", got, s)
		}
	}
}

func TestParseDateInvalid(t *testing.T) {
	if _, ok := ParseDate("not-a-date"); ok {
		t.Fatalf("expected failure")
	}
}

func TestLatestTradingDayWeekend(t *testing.T) {
	// 2025-03-16 is a Sunday; the latest session is Friday the 14th.
	sunday := time.Date(2025, 3, 16, 15, 0, 0, 0, time.UTC)
	got := LatestTradingDay(sunday)
	if got.Format(DateLayout) != "2025-03-14" {
		t.Fatalf("unexpected trading day %v", got)
	}
}

func TestLatestTradingDayWeekday(t *testing.T) {
	wednesday := time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)
	got := LatestTradingDay(wednesday)
	if got.Format(DateLayout) != "2025-03-12" {
		t.Fatalf("unexpected trading day %v", got)
	}
}

func TestNextBusinessDaysSkipsWeekend(t *testing.T) {
	// Thursday; the next three business days are Fri, Mon, Tue.
	last := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)
	got := NextBusinessDays(last, 3)
	want := []string{"2025-03-14", "2025-03-17", "2025-03-18"}
	if len(got) != len(want) {
		t.Fatalf("got %d days, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Format(DateLayout) != w {
			t.Fatalf("day %d: got %v, want %s", i, got[i], w)
		}
	}
}

func TestPeriodDays(t *testing.T) {
	cases := map[string]int{"6mo": 180, "1y": 365, "2y": 730, "5y": 1825, "bogus": 365}
	for period, want := range cases {
		if got := PeriodDays(period); got != want {
			t.Fatalf("%s: got %d, want %d", period, got, want)
		}
	}
}
