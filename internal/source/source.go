// Package source fetches daily OHLCV bars from two unreliable remote vendors
// and normalizes their native shapes into the canonical PriceBar form.
package source

import (
	"context"
	"time"

	"Kronos/internal/domain/models"
	"Kronos/internal/symbol"
)

// Source is one remote bar vendor.
type Source interface {
	Name() string
	Fetch(ctx context.Context, codes symbol.Pair, from, to time.Time) (models.PriceSeries, error)
}

// Metrics is the subset of the metrics recorder the fetcher needs.
type Metrics interface {
	RecordFetch(source, outcome string)
}
