package source

import (
	"context"
	"errors"
	"time"

	"Kronos/internal/domain/models"
	"Kronos/internal/symbol"
	applogger "Kronos/pkg/logger"
)

// Fetcher tries the primary vendor first and falls back to the secondary on
// an empty or failed response, tagging every result with its provenance.
type Fetcher struct {
	primary   Source
	secondary Source
	logger    *applogger.Logger
	metrics   Metrics
}

// NewFetcher builds the multi-source fetcher.
func NewFetcher(primary, secondary Source, logger *applogger.Logger, metrics Metrics) *Fetcher {
	return &Fetcher{primary: primary, secondary: secondary, logger: logger, metrics: metrics}
}

// Fetch returns the bar series for [from, to] plus the source tag that
// produced it. An error is returned only when both sources failed; callers
// are expected to degrade to stale cache rather than treat it as fatal.
func (f *Fetcher) Fetch(ctx context.Context, raw string, from, to time.Time) (models.PriceSeries, string, error) {
	codes, err := symbol.Normalize(raw)
	if err != nil {
		return nil, "", err
	}

	series, primaryErr := f.primary.Fetch(ctx, codes, from, to)
	if primaryErr == nil && len(series) > 0 {
		f.record(f.primary.Name(), "ok")
		return series, f.primary.Name(), nil
	}
	if primaryErr == nil {
		primaryErr = errors.New("empty result")
	}
	f.record(f.primary.Name(), "failed")
	f.logger.Warn("primary source failed, falling back",
		applogger.String("symbol", raw), applogger.Error(primaryErr))

	series, secondaryErr := f.secondary.Fetch(ctx, codes, from, to)
	if secondaryErr == nil && len(series) > 0 {
		f.record(f.secondary.Name(), "ok")
		return series, f.secondary.Name(), nil
	}
	if secondaryErr == nil {
		secondaryErr = errors.New("empty result")
	}
	f.record(f.secondary.Name(), "failed")

	return nil, "", errors.Join(primaryErr, secondaryErr)
}

func (f *Fetcher) record(source, outcome string) {
	if f.metrics != nil {
		f.metrics.RecordFetch(source, outcome)
	}
}
