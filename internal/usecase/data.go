package usecase

import (
	"context"

	"Kronos/internal/domain/models"
	"Kronos/internal/domain/repository"
	"Kronos/internal/store"
	"Kronos/internal/symbol"
	"Kronos/internal/syncer"
)

// DataUseCase covers the data-maintenance surface around the forecast
// pipeline: forced refreshes, cached-symbol listing and prediction history.
type DataUseCase struct {
	engine   *syncer.Engine
	store    *store.Store
	recorder repository.HistoryRecorder
}

func NewDataUseCase(engine *syncer.Engine, st *store.Store, recorder repository.HistoryRecorder) *DataUseCase {
	return &DataUseCase{engine: engine, store: st, recorder: recorder}
}

// Refresh ensures data is available for the instrument covering period,
// refreshing when stale, and reports what happened.
func (uc *DataUseCase) Refresh(ctx context.Context, code, period string) (models.SyncResult, error) {
	if _, err := symbol.Normalize(code); err != nil {
		return models.SyncResult{}, err
	}
	_, result, err := uc.engine.Ensure(ctx, code, period)
	return result, err
}

// Symbols lists instruments with cached data.
func (uc *DataUseCase) Symbols(context.Context) []string {
	return uc.store.ListSymbols()
}

// History returns recent prediction records for an instrument.
func (uc *DataUseCase) History(ctx context.Context, code string, limit int) ([]models.PredictionRecord, error) {
	return uc.recorder.Recent(ctx, code, limit)
}
