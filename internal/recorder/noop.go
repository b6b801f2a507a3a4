package recorder

import (
	"context"

	"Kronos/internal/domain/models"
	"Kronos/internal/domain/repository"
)

// Noop discards all records; used when the recorder is disabled in config.
type Noop struct{}

func (Noop) Record(context.Context, *models.PredictionRecord) error { return nil }

func (Noop) Recent(context.Context, string, int) ([]models.PredictionRecord, error) {
	return nil, nil
}

func (Noop) Close() error { return nil }

var _ repository.HistoryRecorder = Noop{}
