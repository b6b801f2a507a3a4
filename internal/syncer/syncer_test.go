package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"Kronos/internal/domain/models"
	"Kronos/internal/store"
	applogger "Kronos/pkg/logger"
)

type fakeFetcher struct {
	series models.PriceSeries
	tag    string
	err    error

	calls    int
	lastFrom time.Time
	lastTo   time.Time
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, from, to time.Time) (models.PriceSeries, string, error) {
	f.calls++
	f.lastFrom, f.lastTo = from, to
	if f.err != nil {
		return nil, "", f.err
	}
	return f.series, f.tag, nil
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

// genDaily produces one bar per calendar day over [from, to].
func genDaily(from, to string) models.PriceSeries {
	var out models.PriceSeries
	for d := day(from); !d.After(day(to)); d = d.AddDate(0, 0, 1) {
		out = append(out, models.PriceBar{
			Date: d, Open: 10, High: 10.5, Low: 9.5, Close: 10,
			Volume: 100, Amount: 1000,
		})
	}
	return out
}

func newEngine(t *testing.T, fetcher *fakeFetcher) (*Engine, *store.Store) {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	st, err := store.New(t.TempDir(), l)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	// Wednesday 2025-03-12, a regular trading day.
	now := func() time.Time { return time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC) }
	st.SetNow(now)
	e := New(st, fetcher, l, nil)
	e.SetNow(now)
	return e, st
}

func TestEnsureMissFetchesFullWindow(t *testing.T) {
	f := &fakeFetcher{series: genDaily("2024-10-01", "2025-03-12"), tag: models.SourcePrimary}
	e, st := newEngine(t, f)

	series, res, err := e.Ensure(context.Background(), "600519", "6mo")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("fetch calls: got %d, want 1", f.calls)
	}
	if res.Source != models.SourcePrimary || res.Freshness != models.FreshnessFresh {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.RowsAdded != len(f.series) {
		t.Fatalf("rows added: got %d, want %d", res.RowsAdded, len(f.series))
	}
	if len(series) == 0 {
		t.Fatalf("empty window returned")
	}
	if !st.Exists("600519") {
		t.Fatalf("cache file not written")
	}
}

func TestEnsureMissBothSourcesFail(t *testing.T) {
	f := &fakeFetcher{err: errors.New("boom")}
	e, st := newEngine(t, f)
	if err := st.Save("000001", genDaily("2024-09-01", "2025-03-12")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, _, err := e.Ensure(context.Background(), "600519", "1y")
	var unavailable *models.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected DataUnavailableError, got %v", err)
	}
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("error does not unwrap to ErrDataUnavailable")
	}
	if len(unavailable.Available) != 1 || unavailable.Available[0] != "000001" {
		t.Fatalf("available hint: got %v", unavailable.Available)
	}
}

func TestEnsureFreshCacheSkipsFetch(t *testing.T) {
	f := &fakeFetcher{}
	e, st := newEngine(t, f)
	if err := st.Save("600519", genDaily("2024-09-01", "2025-03-12")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	series, res, err := e.Ensure(context.Background(), "600519", "6mo")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if f.calls != 0 {
		t.Fatalf("fetch calls: got %d, want 0", f.calls)
	}
	if res.Source != models.SourceCache || res.RowsAdded != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(series) == 0 {
		t.Fatalf("empty window returned")
	}
}

func TestEnsureStaleFetchesDeltaOnly(t *testing.T) {
	f := &fakeFetcher{series: genDaily("2025-03-11", "2025-03-12"), tag: models.SourceSecondary}
	e, st := newEngine(t, f)
	if err := st.Save("600519", genDaily("2024-09-01", "2025-03-10")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	series, res, err := e.Ensure(context.Background(), "600519", "6mo")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("fetch calls: got %d, want 1", f.calls)
	}
	if got := f.lastFrom.Format("2006-01-02"); got != "2025-03-11" {
		t.Fatalf("delta start: got %s, want day after cached last", got)
	}
	if res.RowsAdded != 2 || res.Source != models.SourceSecondary {
		t.Fatalf("unexpected result %+v", res)
	}
	if series.LastDate().Format("2006-01-02") != "2025-03-12" {
		t.Fatalf("window missing delta rows")
	}
}

func TestEnsureStaleServedOnDeltaFailure(t *testing.T) {
	f := &fakeFetcher{err: errors.New("both sources down")}
	e, st := newEngine(t, f)
	if err := st.Save("600519", genDaily("2024-09-01", "2025-03-10")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	series, res, err := e.Ensure(context.Background(), "600519", "6mo")
	if err != nil {
		t.Fatalf("expected soft degradation, got %v", err)
	}
	if res.Freshness != models.FreshnessStale {
		t.Fatalf("freshness: got %s", res.Freshness)
	}
	if res.RowsAdded != 0 || res.Source != models.SourceCache {
		t.Fatalf("unexpected result %+v", res)
	}
	if series.LastDate().Format("2006-01-02") != "2025-03-10" {
		t.Fatalf("stale window truncated")
	}
}

func TestEnsureRefetchesShortSpan(t *testing.T) {
	// Fresh but covering only twelve days of a six-month request: the
	// leftover of an interrupted initial sync.
	f := &fakeFetcher{series: genDaily("2024-10-01", "2025-03-12"), tag: models.SourcePrimary}
	e, st := newEngine(t, f)
	if err := st.Save("600519", genDaily("2025-03-01", "2025-03-12")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	series, res, err := e.Ensure(context.Background(), "600519", "6mo")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("fetch calls: got %d, want 1", f.calls)
	}
	if res.RowsAdded == 0 || res.Source != models.SourcePrimary {
		t.Fatalf("unexpected result %+v", res)
	}
	if series[0].Date.After(day("2024-10-02")) {
		t.Fatalf("window still short, starts %v", series[0].Date)
	}
}
