package repository

import (
	"context"
	"time"

	"Kronos/internal/domain/models"
)

// Predictor is the external forecasting model, consumed purely through its
// call contract. One call produces one sampled path of horizon OHLCV rows.
type Predictor interface {
	Predict(ctx context.Context, req *PredictParams) (models.PriceSeries, error)
}

// PredictParams is the fixed call contract of the forecasting model. History
// is ascending, one row per trading day, at most the model's max context;
// TargetDates are strictly-increasing future business days starting after the
// last history date.
type PredictParams struct {
	History     models.PriceSeries
	TargetDates []time.Time
	Horizon     int
	Temperature float64
	TopP        float64
	TopK        int
	SampleCount int
}

// HistoryRecorder persists one record per completed prediction request.
type HistoryRecorder interface {
	Record(ctx context.Context, rec *models.PredictionRecord) error
	Recent(ctx context.Context, symbol string, limit int) ([]models.PredictionRecord, error)
	Close() error
}

// Metrics records operational counters and timings.
type Metrics interface {
	RecordFetch(source, outcome string)
	RecordCacheOutcome(outcome string)
	RecordRowsAdded(symbol string, n int)
	RecordModelCall(outcome string, seconds float64)
	RecordForecastDuration(seconds float64)
}
