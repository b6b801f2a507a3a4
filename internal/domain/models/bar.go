package models

import (
	"math"
	"sort"
	"time"

	"Kronos/pkg/util"
)

// PriceBar is one trading day of an instrument. Date carries no time component
// (UTC midnight). Open/High/Low/Close are positive, Volume and Amount non-negative.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	Amount float64   `json:"amount"`
}

// Valid reports whether the bar is usable: finite fields, positive prices,
// non-negative volume/amount and a set date.
func (b PriceBar) Valid() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume, b.Amount} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return !b.Date.IsZero() &&
		b.Open > 0 && b.High > 0 && b.Low > 0 && b.Close > 0 &&
		b.Volume >= 0 && b.Amount >= 0
}

// PriceSeries is an ordered run of bars for one instrument, strictly increasing
// by date with no duplicates.
type PriceSeries []PriceBar

// SortByDate orders the series ascending in place.
func (s PriceSeries) SortByDate() {
	sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
}

// LastDate returns the date of the final bar, or the zero time for an empty series.
func (s PriceSeries) LastDate() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Date
}

// LastClose returns the final close, or 0 for an empty series.
func (s PriceSeries) LastClose() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Close
}

// Closes extracts the close column.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Tail returns the last n bars (the whole series when it is shorter).
func (s PriceSeries) Tail(n int) PriceSeries {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Since drops bars dated before cutoff.
func (s PriceSeries) Since(cutoff time.Time) PriceSeries {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(cutoff) })
	return s[i:]
}

// DailyReturnStd is the standard deviation of day-over-day close returns.
func (s PriceSeries) DailyReturnStd() float64 {
	if len(s) < 3 {
		return 0
	}
	rets := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		if s[i-1].Close > 0 {
			rets = append(rets, s[i].Close/s[i-1].Close-1)
		}
	}
	if len(rets) < 2 {
		return 0
	}
	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))
	var m2 float64
	for _, r := range rets {
		d := r - mean
		m2 += d * d
	}
	return math.Sqrt(m2 / float64(len(rets)-1))
}

// Merge combines old and new series: rows of old whose dates are absent from new,
// plus all of new, sorted ascending. New data wins on date collision. Inputs are
// not mutated.
func Merge(old, new PriceSeries) PriceSeries {
	if len(new) == 0 {
		out := make(PriceSeries, len(old))
		copy(out, old)
		out.SortByDate()
		return out
	}
	seen := make(map[time.Time]struct{}, len(new))
	for _, b := range new {
		seen[util.Day(b.Date)] = struct{}{}
	}
	out := make(PriceSeries, 0, len(old)+len(new))
	for _, b := range old {
		if _, dup := seen[util.Day(b.Date)]; !dup {
			out = append(out, b)
		}
	}
	out = append(out, new...)
	out.SortByDate()
	return out
}
