package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"Kronos/internal/domain/models"
	"Kronos/internal/domain/repository"
	"Kronos/internal/forecast"
	"Kronos/internal/symbol"
	"Kronos/internal/syncer"
	pkgcache "Kronos/pkg/cache"
	applogger "Kronos/pkg/logger"
	"Kronos/pkg/util"
)

// minHistoryRows is the shortest series a forecast may be built from.
const minHistoryRows = 50

// PredictUseCase runs the full forecast pipeline: sync history, drive the
// model through the Monte Carlo aggregator, calibrate continuity, enforce
// exchange constraints and assemble the response.
type PredictUseCase struct {
	engine     *syncer.Engine
	aggregator *forecast.Aggregator
	recorder   repository.HistoryRecorder
	metrics    repository.Metrics
	logger     *applogger.Logger

	respCache pkgcache.Service
	cacheTTL  time.Duration
	topK      int
	margin    float64
}

// NewPredictUseCase wires the pipeline. respCache may be nil to disable
// response caching.
func NewPredictUseCase(
	engine *syncer.Engine,
	aggregator *forecast.Aggregator,
	recorder repository.HistoryRecorder,
	metrics repository.Metrics,
	logger *applogger.Logger,
	respCache pkgcache.Service,
	cacheTTL time.Duration,
	topK int,
	boundaryMargin float64,
) *PredictUseCase {
	return &PredictUseCase{
		engine:     engine,
		aggregator: aggregator,
		recorder:   recorder,
		metrics:    metrics,
		logger:     logger,
		respCache:  respCache,
		cacheTTL:   cacheTTL,
		topK:       topK,
		margin:     boundaryMargin,
	}
}

// Predict serves one forecast request.
func (uc *PredictUseCase) Predict(ctx context.Context, req *models.PredictRequest) (*models.Prediction, error) {
	if _, err := symbol.Normalize(req.StockCode); err != nil {
		return nil, err
	}

	cacheKey := pkgcache.GenerateKeyWithParams("predict",
		req.StockCode, req.Period, req.PredLen, req.Lookback,
		req.Temperature, req.TopP, req.SampleCount)
	if uc.respCache != nil {
		var cached models.Prediction
		if err := uc.respCache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	start := time.Now()

	series, sync, err := uc.engine.Ensure(ctx, req.StockCode, req.Period)
	if err != nil {
		return nil, err
	}
	if len(series) < minHistoryRows {
		return nil, fmt.Errorf("%w: %d rows for %s, need %d",
			models.ErrInsufficientData, len(series), req.StockCode, minHistoryRows)
	}

	history := series.Tail(req.Lookback)
	targetDates := util.NextBusinessDays(series.LastDate(), req.PredLen)

	path, bands, err := uc.aggregator.Aggregate(ctx, &forecast.AggregateParams{
		History:     history,
		TargetDates: targetDates,
		Horizon:     req.PredLen,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		TopK:        uc.topK,
		Samples:     req.SampleCount,
	})
	if err != nil {
		return nil, err
	}

	lastClose := series.LastClose()
	path, bands = forecast.Calibrate(lastClose, path, bands)
	path = forecast.Enforce(path, req.StockCode, lastClose, uc.margin)

	pred := uc.assemble(req, series, path, bands, sync, lastClose)

	if uc.metrics != nil {
		uc.metrics.RecordForecastDuration(time.Since(start).Seconds())
	}
	if uc.recorder != nil {
		rec := &models.PredictionRecord{
			Symbol:         req.StockCode,
			Horizon:        req.PredLen,
			Source:         sync.Source,
			LastClose:      lastClose,
			PredictedClose: pred.Summary.PredictedPrice,
			ChangePercent:  pred.Summary.ChangePercent,
			DurationMS:     time.Since(start).Milliseconds(),
			CreatedAt:      time.Now().UTC(),
		}
		if err := uc.recorder.Record(ctx, rec); err != nil {
			uc.logger.Warn("prediction record failed",
				applogger.String("symbol", req.StockCode), applogger.Error(err))
		}
	}
	if uc.respCache != nil {
		if err := uc.respCache.Set(ctx, cacheKey, *pred, uc.cacheTTL); err != nil {
			uc.logger.Debug("response cache set failed", applogger.Error(err))
		}
	}

	uc.logger.Info("forecast complete",
		applogger.String("symbol", req.StockCode),
		applogger.String("source", sync.Source),
		applogger.Int("horizon", req.PredLen),
		applogger.Float64("change_pct", pred.Summary.ChangePercent),
		applogger.Duration("duration_ms", time.Since(start)))

	return pred, nil
}

func (uc *PredictUseCase) assemble(
	req *models.PredictRequest,
	series models.PriceSeries,
	path models.PriceSeries,
	bands []models.ForecastBand,
	sync models.SyncResult,
	lastClose float64,
) *models.Prediction {
	rows := make([]models.PredictionRow, len(path))
	for i, b := range path {
		row := models.PredictionRow{
			Date:   b.Date.Format(util.DateLayout),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
			Amount: b.Amount,
		}
		if i < len(bands) {
			row.CloseUpper = bands[i].P75
			row.CloseLower = bands[i].P25
			row.CloseMax = bands[i].Max
			row.CloseMin = bands[i].Min
			row.CloseStd = bands[i].Std
		}
		rows[i] = row
	}

	predicted := path.LastClose()
	changePct := 0.0
	if lastClose > 0 {
		changePct = (predicted - lastClose) / lastClose * 100
	}
	trend := "sideways"
	switch {
	case changePct > 1:
		trend = "up"
	case changePct < -1:
		trend = "down"
	}

	return &models.Prediction{
		Symbol:      req.StockCode,
		Historical:  series,
		Predictions: rows,
		Summary: models.PredictionSummary{
			CurrentPrice:   lastClose,
			PredictedPrice: predicted,
			ChangeAmount:   predicted - lastClose,
			ChangePercent:  changePct,
			Trend:          trend,
			Volatility:     series.DailyReturnStd() * math.Sqrt(252) * 100,
			PredictionDays: req.PredLen,
		},
		Sync:        sync,
		GeneratedAt: time.Now().UTC(),
	}
}
