package forecast

import (
	"Kronos/internal/domain/models"
)

// Continuity tolerance: a first-step close outside this ratio of the last
// known close is treated as a gross scale error, not an ordinary gap.
const (
	continuityRatioLo = 0.5
	continuityRatioHi = 1.5
)

// Calibrate detects an implausible gap between the last known close and the
// first forecast step and rescales the whole path to close it, preserving
// its shape. Bands are rescaled by the same factor to stay consistent.
// Ordinary overnight gaps pass through untouched; day-by-day plausibility is
// the enforcer's job.
func Calibrate(lastClose float64, path models.PriceSeries, bands []models.ForecastBand) (models.PriceSeries, []models.ForecastBand) {
	if len(path) == 0 || lastClose <= 0 || path[0].Close <= 0 {
		return path, bands
	}
	ratio := path[0].Close / lastClose
	if ratio >= continuityRatioLo && ratio <= continuityRatioHi {
		return path, bands
	}

	scale := lastClose / path[0].Close
	out := make(models.PriceSeries, len(path))
	for i, b := range path {
		b.Open *= scale
		b.High *= scale
		b.Low *= scale
		b.Close *= scale
		out[i] = b
	}
	outBands := make([]models.ForecastBand, len(bands))
	for i, b := range bands {
		b.Median *= scale
		b.P25 *= scale
		b.P75 *= scale
		b.Min *= scale
		b.Max *= scale
		b.Std *= scale
		outBands[i] = b
	}
	return out, outBands
}
