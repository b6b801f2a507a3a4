package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"Kronos/internal/domain/models"
	"Kronos/internal/domain/repository"
	"Kronos/internal/forecast"
	"Kronos/internal/store"
	"Kronos/internal/syncer"
	pkgcache "Kronos/pkg/cache"
	applogger "Kronos/pkg/logger"
)

type failingFetcher struct{ calls int32 }

func (f *failingFetcher) Fetch(context.Context, string, time.Time, time.Time) (models.PriceSeries, string, error) {
	atomic.AddInt32(&f.calls, 1)
	return nil, "", errors.New("sources down")
}

type countingPredictor struct{ calls int32 }

func (p *countingPredictor) Predict(_ context.Context, req *repository.PredictParams) (models.PriceSeries, error) {
	atomic.AddInt32(&p.calls, 1)
	out := make(models.PriceSeries, req.Horizon)
	close := 10.5 + (req.Temperature - 1.0)
	for i, d := range req.TargetDates {
		out[i] = models.PriceBar{
			Date: d, Open: close, High: close + 0.1, Low: close - 0.1,
			Close: close, Volume: 800, Amount: close * 800,
		}
	}
	return out, nil
}

type capturingRecorder struct{ records []*models.PredictionRecord }

func (r *capturingRecorder) Record(_ context.Context, rec *models.PredictionRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func (r *capturingRecorder) Recent(context.Context, string, int) ([]models.PredictionRecord, error) {
	return nil, nil
}

func (r *capturingRecorder) Close() error { return nil }

func seedSeries(days int, lastDay time.Time) models.PriceSeries {
	out := make(models.PriceSeries, days)
	d := lastDay.AddDate(0, 0, -(days - 1))
	for i := range out {
		out[i] = models.PriceBar{
			Date: d, Open: 10, High: 10.1, Low: 9.9, Close: 10,
			Volume: 1000, Amount: 10000,
		}
		d = d.AddDate(0, 0, 1)
	}
	return out
}

func newPredictFixture(t *testing.T, seedDays int) (*PredictUseCase, *countingPredictor, *capturingRecorder) {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	st, err := store.New(t.TempDir(), l)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	// Wednesday, a regular session; the seeded series ends today so the
	// cache is fresh and no fetch happens.
	now := func() time.Time { return time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC) }
	st.SetNow(now)
	if seedDays > 0 {
		if err := st.Save("600519", seedSeries(seedDays, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	engine := syncer.New(st, &failingFetcher{}, l, nil)
	engine.SetNow(now)

	predictor := &countingPredictor{}
	agg := forecast.NewAggregator(predictor, l, nil, 2)
	rec := &capturingRecorder{}

	uc := NewPredictUseCase(engine, agg, rec, nil, l,
		pkgcache.NewMemoryCache(), time.Minute, 0, forecast.DefaultBoundaryMargin)
	return uc, predictor, rec
}

func predictReq() *models.PredictRequest {
	return &models.PredictRequest{
		StockCode:   "600519",
		Period:      "6mo",
		PredLen:     5,
		Lookback:    100,
		Temperature: 1.0,
		TopP:        0.9,
		SampleCount: 4,
	}
}

func TestPredictPipeline(t *testing.T) {
	uc, predictor, rec := newPredictFixture(t, 200)

	pred, err := uc.Predict(context.Background(), predictReq())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	if pred.Symbol != "600519" || len(pred.Predictions) != 5 {
		t.Fatalf("unexpected prediction %s with %d rows", pred.Symbol, len(pred.Predictions))
	}
	// Four jittered draws plus the representative path.
	if got := atomic.LoadInt32(&predictor.calls); got != 5 {
		t.Fatalf("model calls: got %d, want 5", got)
	}

	for i, row := range pred.Predictions {
		if row.CloseLower > row.Close || row.Close > row.CloseUpper {
			t.Fatalf("row %d: close %v outside band [%v, %v]", i, row.Close, row.CloseLower, row.CloseUpper)
		}
		if row.High < row.Close || row.Low > row.Close {
			t.Fatalf("row %d: broken OHLC %+v", i, row)
		}
	}
	// First forecast day is the next business day after the last session.
	if pred.Predictions[0].Date != "2025-03-13" {
		t.Fatalf("unexpected first forecast date %s", pred.Predictions[0].Date)
	}

	if pred.Summary.CurrentPrice != 10 {
		t.Fatalf("current price: got %v", pred.Summary.CurrentPrice)
	}
	if pred.Summary.Trend != "up" {
		t.Fatalf("trend: got %s (change %v%%)", pred.Summary.Trend, pred.Summary.ChangePercent)
	}

	if len(rec.records) != 1 || rec.records[0].Symbol != "600519" || rec.records[0].Horizon != 5 {
		t.Fatalf("unexpected recorder state %+v", rec.records)
	}
}

func TestPredictResponseCached(t *testing.T) {
	uc, predictor, _ := newPredictFixture(t, 200)

	if _, err := uc.Predict(context.Background(), predictReq()); err != nil {
		t.Fatalf("first predict: %v", err)
	}
	before := atomic.LoadInt32(&predictor.calls)

	pred, err := uc.Predict(context.Background(), predictReq())
	if err != nil {
		t.Fatalf("second predict: %v", err)
	}
	if got := atomic.LoadInt32(&predictor.calls); got != before {
		t.Fatalf("cached response still called model: %d -> %d", before, got)
	}
	if pred.Symbol != "600519" {
		t.Fatalf("unexpected cached prediction %+v", pred)
	}
}

func TestPredictInsufficientHistory(t *testing.T) {
	uc, _, _ := newPredictFixture(t, 10)

	_, err := uc.Predict(context.Background(), predictReq())
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestPredictInvalidSymbol(t *testing.T) {
	uc, _, _ := newPredictFixture(t, 200)

	req := predictReq()
	req.StockCode = "990001"
	_, err := uc.Predict(context.Background(), req)
	if !errors.Is(err, models.ErrInvalidSymbol) {
		t.Fatalf("expected ErrInvalidSymbol, got %v", err)
	}
}
