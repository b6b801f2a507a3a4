package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"Kronos/internal/domain/models"
)

func enforceBar(close float64) models.PriceBar {
	return models.PriceBar{
		Date: time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC),
		Open: close, High: close + 0.2, Low: close - 0.2,
		Close: close, Volume: 500, Amount: close * 500,
	}
}

func TestEnforceClampsSpecialTreatmentLimit(t *testing.T) {
	// A 12% jump on a 5%-capped instrument: clamped to the band, then
	// pulled inward off the exact boundary.
	path := models.PriceSeries{enforceBar(11.20)}
	out := Enforce(path, "ST0001", 10.00, DefaultBoundaryMargin)

	require.Len(t, out, 1)
	require.InDelta(t, 10.48, out[0].Close, 1e-9)
	require.LessOrEqual(t, out[0].Close, 10.50)
	require.GreaterOrEqual(t, out[0].Close, 9.50)
}

func TestEnforceWithinBandUntouched(t *testing.T) {
	// -9.2% on a main-board instrument stays inside the 10% band.
	path := models.PriceSeries{enforceBar(6.43)}
	out := Enforce(path, "600519", 7.08, DefaultBoundaryMargin)
	require.InDelta(t, 6.43, out[0].Close, 1e-9)
}

func TestEnforceGrowthBoardWiderBand(t *testing.T) {
	// +15% is legal on the 20% growth boards.
	path := models.PriceSeries{enforceBar(11.50)}
	out := Enforce(path, "300750", 10.00, DefaultBoundaryMargin)
	require.InDelta(t, 11.50, out[0].Close, 1e-9)
}

func TestEnforceChainsOnCorrectedClose(t *testing.T) {
	// Day one is clamped; day two's band must anchor on the corrected
	// close, not the raw model output.
	path := models.PriceSeries{enforceBar(13.00), enforceBar(13.00)}
	out := Enforce(path, "600519", 10.00, DefaultBoundaryMargin)

	// Day 1: clamp to 11.00, pull inward to 10.98.
	require.InDelta(t, 10.98, out[0].Close, 1e-9)
	// Day 2 band is [10.98*0.9, 10.98*1.1] quantized; 13.00 clamps to the
	// upper bound 12.08 and is pulled inward.
	maxDay2 := 10.98 * 1.1
	require.LessOrEqual(t, out[1].Close, maxDay2+1e-9)
	require.Greater(t, out[1].Close, out[0].Close)
}

func TestEnforceRepairsOHLC(t *testing.T) {
	b := enforceBar(10.00)
	b.High = 9.00 // below both open and close
	b.Low = 10.50 // above both open and close
	out := Enforce(models.PriceSeries{b}, "600519", 10.00, DefaultBoundaryMargin)

	require.GreaterOrEqual(t, out[0].High, out[0].Open)
	require.GreaterOrEqual(t, out[0].High, out[0].Close)
	require.LessOrEqual(t, out[0].Low, out[0].Open)
	require.LessOrEqual(t, out[0].Low, out[0].Close)
}

func TestEnforceCoercesNonFinite(t *testing.T) {
	b := enforceBar(10.00)
	b.Close = math.NaN()
	b.Open = math.Inf(1)
	b.Volume = -50
	out := Enforce(models.PriceSeries{b}, "600519", 10.00, DefaultBoundaryMargin)

	require.InDelta(t, 10.00, out[0].Close, 1e-9)
	require.InDelta(t, 10.00, out[0].Open, 1e-9)
	require.Equal(t, 0.0, out[0].Volume)
	require.Equal(t, 0.0, out[0].Amount)
}

func TestEnforceRecomputesAmount(t *testing.T) {
	b := enforceBar(10.20)
	b.Amount = 123456 // stale turnover from the raw sample
	out := Enforce(models.PriceSeries{b}, "600519", 10.00, DefaultBoundaryMargin)
	require.InDelta(t, out[0].Close*out[0].Volume, out[0].Amount, 1e-9)
}

func TestEnforceDoesNotMutateInput(t *testing.T) {
	path := models.PriceSeries{enforceBar(13.00)}
	Enforce(path, "600519", 10.00, DefaultBoundaryMargin)
	require.InDelta(t, 13.00, path[0].Close, 1e-9)
}
