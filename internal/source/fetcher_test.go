package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"Kronos/internal/domain/models"
	"Kronos/internal/symbol"
	applogger "Kronos/pkg/logger"
)

type stubSource struct {
	name   string
	series models.PriceSeries
	err    error

	calls    int
	lastPair symbol.Pair
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context, codes symbol.Pair, _, _ time.Time) (models.PriceSeries, error) {
	s.calls++
	s.lastPair = codes
	return s.series, s.err
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func oneBar() models.PriceSeries {
	return models.PriceSeries{{
		Date: time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		Open: 10, High: 10.5, Low: 9.5, Close: 10, Volume: 100, Amount: 1000,
	}}
}

func TestFetchPrimaryWins(t *testing.T) {
	primary := &stubSource{name: models.SourcePrimary, series: oneBar()}
	secondary := &stubSource{name: models.SourceSecondary}
	f := NewFetcher(primary, secondary, testLogger(t), nil)

	got, tag, err := f.Fetch(context.Background(), "600519", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if tag != models.SourcePrimary || len(got) != 1 {
		t.Fatalf("got tag %q, %d rows", tag, len(got))
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary called on primary success")
	}
	if primary.lastPair.Primary != "600519" {
		t.Fatalf("primary saw %+v", primary.lastPair)
	}
}

func TestFetchFallsBackOnError(t *testing.T) {
	primary := &stubSource{name: models.SourcePrimary, err: errors.New("timeout")}
	secondary := &stubSource{name: models.SourceSecondary, series: oneBar()}
	f := NewFetcher(primary, secondary, testLogger(t), nil)

	got, tag, err := f.Fetch(context.Background(), "600519", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if tag != models.SourceSecondary || len(got) != 1 {
		t.Fatalf("got tag %q, %d rows", tag, len(got))
	}
	if secondary.lastPair.Secondary != "600519.SS" {
		t.Fatalf("secondary saw %+v", secondary.lastPair)
	}
}

func TestFetchFallsBackOnEmptyResult(t *testing.T) {
	primary := &stubSource{name: models.SourcePrimary}
	secondary := &stubSource{name: models.SourceSecondary, series: oneBar()}
	f := NewFetcher(primary, secondary, testLogger(t), nil)

	_, tag, err := f.Fetch(context.Background(), "600519", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if tag != models.SourceSecondary {
		t.Fatalf("got tag %q", tag)
	}
}

func TestFetchBothFail(t *testing.T) {
	primary := &stubSource{name: models.SourcePrimary, err: errors.New("down")}
	secondary := &stubSource{name: models.SourceSecondary, err: errors.New("also down")}
	f := NewFetcher(primary, secondary, testLogger(t), nil)

	_, _, err := f.Fetch(context.Background(), "600519", time.Time{}, time.Time{})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestFetchRejectsInvalidSymbol(t *testing.T) {
	f := NewFetcher(&stubSource{name: "p"}, &stubSource{name: "s"}, testLogger(t), nil)
	_, _, err := f.Fetch(context.Background(), "990001", time.Time{}, time.Time{})
	if !errors.Is(err, models.ErrInvalidSymbol) {
		t.Fatalf("expected ErrInvalidSymbol, got %v", err)
	}
}
