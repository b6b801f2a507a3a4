// Package syncer keeps the local bar cache covering a requested lookback
// window, fetching only the missing delta when a cache already exists.
package syncer

import (
	"context"
	"time"

	"Kronos/internal/domain/models"
	"Kronos/internal/store"
	applogger "Kronos/pkg/logger"
	"Kronos/pkg/util"
)

// BarFetcher is the remote side of a sync.
type BarFetcher interface {
	Fetch(ctx context.Context, symbol string, from, to time.Time) (models.PriceSeries, string, error)
}

// Metrics is the subset of the metrics recorder the engine needs.
type Metrics interface {
	RecordCacheOutcome(outcome string)
	RecordRowsAdded(symbol string, n int)
}

// Engine orchestrates the cache store and the multi-source fetcher.
type Engine struct {
	store   *store.Store
	fetcher BarFetcher
	logger  *applogger.Logger
	metrics Metrics

	now func() time.Time
}

// New builds a sync engine.
func New(st *store.Store, fetcher BarFetcher, logger *applogger.Logger, metrics Metrics) *Engine {
	return &Engine{store: st, fetcher: fetcher, logger: logger, metrics: metrics, now: time.Now}
}

// SetNow overrides the clock, for tests.
func (e *Engine) SetNow(now func() time.Time) { e.now = now }

// shortSpanFraction triggers a full re-fetch when the cached span covers less
// than this share of the requested period, catching partial files left by
// interrupted syncs.
const shortSpanFraction = 0.8

// Ensure returns a series covering the requested period for symbol,
// refreshing the cache only when stale. Exactly one file write happens per
// call that produced new rows, none otherwise. A failed delta refresh
// degrades to the stale cache instead of failing the request.
func (e *Engine) Ensure(ctx context.Context, symbol, period string) (models.PriceSeries, models.SyncResult, error) {
	lock := e.store.Lock(symbol)
	lock.Lock()
	defer lock.Unlock()

	today := util.Day(e.now())
	windowStart := today.AddDate(0, 0, -util.PeriodDays(period))

	cached, err := e.store.Load(symbol)
	if err != nil {
		// Treat unreadable cache as a miss, never as a fatal error.
		e.logger.Warn("cache load failed, refetching",
			applogger.String("symbol", symbol), applogger.Error(err))
		cached = nil
	}

	series := cached
	added := 0
	result := models.SyncResult{
		Symbol:    symbol,
		Source:    models.SourceCache,
		Freshness: models.FreshnessFresh,
	}

	switch {
	case len(cached) == 0:
		fetched, tag, err := e.fetcher.Fetch(ctx, symbol, windowStart, today)
		if err != nil {
			e.recordCache("miss_failed")
			return nil, models.SyncResult{}, &models.DataUnavailableError{
				Symbol:    symbol,
				Available: e.store.ListSymbols(),
			}
		}
		e.recordCache("miss_filled")
		series = fetched
		added = len(fetched)
		result.Source = tag

	case e.store.IsFresh(symbol):
		e.recordCache("hit")

	default:
		delta, tag, err := e.fetcher.Fetch(ctx, symbol, cached.LastDate().AddDate(0, 0, 1), today)
		if err != nil {
			// Soft degradation: serve what we have and say so.
			e.recordCache("stale_served")
			e.logger.Warn("delta refresh failed, serving stale cache",
				applogger.String("symbol", symbol),
				applogger.String("last_date", cached.LastDate().Format(util.DateLayout)),
				applogger.Error(err))
			result.Freshness = models.FreshnessStale
		} else {
			merged := models.Merge(cached, delta)
			e.recordCache("refreshed")
			added = len(merged) - len(cached)
			series = merged
			result.Source = tag
		}
	}

	// Secondary safeguard: a span materially shorter than the requested
	// period points at a partial cache file from an interrupted sync.
	if n, tag := e.refetchShortSpan(ctx, symbol, period, windowStart, today, &series); n > 0 {
		added += n
		result.Source = tag
	}

	if added > 0 {
		if err := e.store.Save(symbol, series); err != nil {
			e.logger.Error("cache save failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
		if e.metrics != nil {
			e.metrics.RecordRowsAdded(symbol, added)
		}
	}

	result.RowsAdded = added
	result.LastDate = series.LastDate().Format(util.DateLayout)
	window := series.Since(windowStart)
	result.RowCount = len(window)
	return window, result, nil
}

// refetchShortSpan re-derives the full window from the live source when the
// series' span is under shortSpanFraction of what the period label implies.
// It merges in place and reports how many rows it contributed.
func (e *Engine) refetchShortSpan(ctx context.Context, symbol, period string, from, to time.Time, series *models.PriceSeries) (int, string) {
	s := *series
	if len(s) == 0 {
		return 0, ""
	}
	span := s.LastDate().Sub(s[0].Date).Hours() / 24
	want := float64(util.PeriodDays(period))
	if span >= want*shortSpanFraction {
		return 0, ""
	}

	e.logger.Info("cached span short for period, refetching full window",
		applogger.String("symbol", symbol),
		applogger.String("period", period),
		applogger.Int("span_days", int(span)))

	fetched, tag, err := e.fetcher.Fetch(ctx, symbol, from, to)
	if err != nil || len(fetched) == 0 {
		return 0, ""
	}
	merged := models.Merge(s, fetched)
	added := len(merged) - len(s)
	if added == 0 {
		return 0, ""
	}
	*series = merged
	return added, tag
}

func (e *Engine) recordCache(outcome string) {
	if e.metrics != nil {
		e.metrics.RecordCacheOutcome(outcome)
	}
}
