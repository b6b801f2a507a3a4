package forecast

import (
	"math"

	"Kronos/internal/domain/models"
	"Kronos/internal/symbol"
)

// DefaultBoundaryMargin pulls a close that lands exactly on a quantized limit
// boundary slightly inward, so forecasts do not render pinned at the
// theoretical limit every day.
const DefaultBoundaryMargin = 0.002

// tick is the minimum price increment; prices are quantized to it.
const tick = 0.01

// Enforce walks the forecast day by day, clamping each day's OHLC into the
// daily move-limit band anchored on the previous corrected close, repairing
// OHLC ordering and non-negativity, and propagating the corrected close
// forward. It is a pure fold: the input path is not mutated, a new corrected
// path is returned, and no step can fail — non-finite inputs are replaced by
// the previous valid close.
func Enforce(path models.PriceSeries, code string, lastClose float64, margin float64) models.PriceSeries {
	if margin <= 0 {
		margin = DefaultBoundaryMargin
	}
	limit := symbol.LimitFor(code)

	out := make(models.PriceSeries, len(path))
	prevClose := lastClose
	for i, day := range path {
		lo := quantize(prevClose * (1 - limit))
		hi := quantize(prevClose * (1 + limit))

		close := coerce(day.Close, prevClose)
		close = clampPrice(close, lo, hi)
		// A close pinned exactly at a quantized boundary reads as a
		// stuck-at-limit artifact; pull it inward by the margin.
		if close == lo {
			close = clampPrice(quantize(lo*(1+margin)), lo, hi)
		} else if close == hi {
			close = clampPrice(quantize(hi*(1-margin)), lo, hi)
		}

		open := clampPrice(coerce(day.Open, prevClose), lo, hi)
		high := clampPrice(coerce(day.High, prevClose), lo, hi)
		low := clampPrice(coerce(day.Low, prevClose), lo, hi)

		high = math.Max(high, math.Max(open, close))
		low = math.Min(low, math.Min(open, close))

		volume := day.Volume
		if math.IsNaN(volume) || math.IsInf(volume, 0) || volume < 0 {
			volume = 0
		}

		out[i] = models.PriceBar{
			Date:   day.Date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: volume,
			Amount: close * volume,
		}
		prevClose = close
	}
	return out
}

func quantize(v float64) float64 {
	return math.Round(v/tick) * tick
}

func clampPrice(v, lo, hi float64) float64 {
	v = quantize(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func coerce(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fallback
	}
	return v
}
