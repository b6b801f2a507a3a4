// Package forecast turns raw model samples into an exchange-compliant,
// internally consistent multi-day OHLCV forecast with uncertainty bands.
package forecast

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"Kronos/internal/domain/models"
	"Kronos/internal/domain/repository"
	applogger "Kronos/pkg/logger"
)

const (
	// temperatureSpread and topPSpread define the deterministic jitter
	// schedule across samples: sample i of n gets an offset proportional
	// to (i/n - 0.5), diversifying paths without moving the average risk
	// profile.
	temperatureSpread = 0.3
	topPSpread        = 0.1
	topPFloor         = 0.7
	topPCeil          = 0.95

	// volFloorFraction: when every step's cross-sample std sits below this
	// share of trailing daily-return volatility, the samples are too tight
	// and synthetic dispersion is injected.
	volFloorFraction = 0.1
	// dispersionScale damps the synthetic noise relative to raw volatility.
	dispersionScale = 0.8
	// dispersionSeed keeps repeated calls with identical inputs reproducible.
	dispersionSeed = 42

	// Band-width floor parameters: a step whose interquartile range is
	// narrower than bandFloorFraction of the median is widened to at least
	// bandMinBase + bandMinGrowth*step of the median.
	bandFloorFraction = 0.01
	bandMinBase       = 0.015
	bandMinGrowth     = 0.005
)

// Aggregator drives the external model n times with perturbed sampling
// parameters and reduces the per-step close samples to a central estimate
// with dispersion bands.
type Aggregator struct {
	predictor repository.Predictor
	logger    *applogger.Logger
	metrics   repository.Metrics
	workers   int
}

// NewAggregator builds an aggregator with a bounded worker pool for the
// independent Monte Carlo draws.
func NewAggregator(predictor repository.Predictor, logger *applogger.Logger, metrics repository.Metrics, workers int) *Aggregator {
	if workers <= 0 {
		workers = 4
	}
	return &Aggregator{predictor: predictor, logger: logger, metrics: metrics, workers: workers}
}

// AggregateParams configures one aggregation run.
type AggregateParams struct {
	History     models.PriceSeries
	TargetDates []time.Time
	Horizon     int
	Temperature float64
	TopP        float64
	TopK        int
	Samples     int
}

// Aggregate returns the representative OHLCV path (close column replaced by
// the per-step median of the samples) and the per-step uncertainty bands.
// All samples must complete before aggregation; there is no partial mode.
func (a *Aggregator) Aggregate(ctx context.Context, p *AggregateParams) (models.PriceSeries, []models.ForecastBand, error) {
	if p.Samples < 1 {
		p.Samples = 1
	}

	closes, err := a.drawSamples(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	dailyVol := p.History.DailyReturnStd()
	if samplesTooTight(closes, dailyVol) {
		a.logger.Debug("sample dispersion below volatility floor, injecting synthetic spread",
			applogger.Float64("daily_vol", dailyVol))
		injectDispersion(closes, dailyVol)
	}

	bands := reduceBands(closes, dailyVol)

	// One representative path at the base sampling parameters carries the
	// OHLCV shape; its close column is replaced by the robust estimate.
	path, err := a.draw(ctx, p, p.Temperature, p.TopP)
	if err != nil {
		return nil, nil, err
	}
	for j := range path {
		path[j].Close = bands[j].Median
	}
	return path, bands, nil
}

// drawSamples issues the jittered model calls on the worker pool and collects
// the close columns into a samples × horizon matrix.
func (a *Aggregator) drawSamples(ctx context.Context, p *AggregateParams) ([][]float64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := p.Samples
	closes := make([][]float64, n)
	errs := make([]error, n)

	sem := make(chan struct{}, a.workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}

			frac := float64(i) / float64(n)
			temp := p.Temperature + temperatureSpread*(frac-0.5)
			topP := clamp(p.TopP+topPSpread*(frac-0.5), topPFloor, topPCeil)

			sample, err := a.draw(ctx, p, temp, topP)
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			closes[i] = sample.Closes()
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("monte carlo draw: %w", err)
		}
	}
	return closes, nil
}

func (a *Aggregator) draw(ctx context.Context, p *AggregateParams, temp, topP float64) (models.PriceSeries, error) {
	start := time.Now()
	sample, err := a.predictor.Predict(ctx, &repository.PredictParams{
		History:     p.History,
		TargetDates: p.TargetDates,
		Horizon:     p.Horizon,
		Temperature: temp,
		TopP:        topP,
		TopK:        p.TopK,
		SampleCount: 1,
	})
	if a.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "failed"
		}
		a.metrics.RecordModelCall(outcome, time.Since(start).Seconds())
	}
	return sample, err
}

// samplesTooTight reports whether the cross-sample std at every step is below
// the volatility-derived floor.
func samplesTooTight(closes [][]float64, dailyVol float64) bool {
	if len(closes) < 2 || dailyVol <= 0 {
		return false
	}
	horizon := len(closes[0])
	floor := dailyVol * volFloorFraction
	for j := 0; j < horizon; j++ {
		if stepStd(closes, j) >= floor {
			return false
		}
	}
	return true
}

// injectDispersion perturbs every sample value multiplicatively with a
// zero-mean normal draw whose scale grows with the square root of the step
// index, using a fixed seed for reproducibility.
func injectDispersion(closes [][]float64, dailyVol float64) {
	rng := rand.New(rand.NewSource(dispersionSeed))
	for i := range closes {
		for j := range closes[i] {
			scale := dailyVol * math.Sqrt(float64(j+1)) * dispersionScale
			closes[i][j] *= 1 + rng.NormFloat64()*scale
		}
	}
}

// reduceBands computes per-step median/p25/p75/min/max/std, then applies the
// band-width floor so far-out steps never show an implausibly tight band.
func reduceBands(closes [][]float64, dailyVol float64) []models.ForecastBand {
	horizon := len(closes[0])
	bands := make([]models.ForecastBand, horizon)
	column := make([]float64, len(closes))

	for j := 0; j < horizon; j++ {
		for i := range closes {
			column[i] = closes[i][j]
		}
		sorted := append([]float64(nil), column...)
		sort.Float64s(sorted)

		b := models.ForecastBand{
			Median: percentile(sorted, 0.5),
			P25:    percentile(sorted, 0.25),
			P75:    percentile(sorted, 0.75),
			Min:    sorted[0],
			Max:    sorted[len(sorted)-1],
			Std:    stepStd(closes, j),
		}

		if b.P75-b.P25 < bandFloorFraction*math.Abs(b.Median) {
			volPart := dailyVol * math.Sqrt(float64(j+1)) * dispersionScale
			minPart := bandMinBase + bandMinGrowth*float64(j)
			half := math.Abs(b.Median) * math.Max(volPart, minPart)
			b.P75 = b.Median + half
			b.P25 = b.Median - half
			b.Std = half / 1.5
			if b.Min > b.P25 {
				b.Min = b.P25
			}
			if b.Max < b.P75 {
				b.Max = b.P75
			}
		}
		bands[j] = b
	}
	return bands
}

func stepStd(closes [][]float64, j int) float64 {
	n := float64(len(closes))
	if n == 0 {
		return 0
	}
	var mean float64
	for i := range closes {
		mean += closes[i][j]
	}
	mean /= n
	var m2 float64
	for i := range closes {
		d := closes[i][j] - mean
		m2 += d * d
	}
	return math.Sqrt(m2 / n)
}

// percentile interpolates linearly between sorted values, matching the
// convention of the reference statistics stack.
func percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
