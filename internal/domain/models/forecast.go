package models

import "time"

// ForecastBand holds per-step dispersion statistics over the Monte Carlo samples.
type ForecastBand struct {
	Median float64 `json:"median"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Std    float64 `json:"std"`
}

// PredictionRow is one forecast day as served to the caller: a corrected OHLCV
// bar plus its uncertainty band.
type PredictionRow struct {
	Date       string  `json:"date"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	Volume     float64 `json:"volume"`
	Amount     float64 `json:"amount"`
	CloseUpper float64 `json:"close_upper"`
	CloseLower float64 `json:"close_lower"`
	CloseMax   float64 `json:"close_max"`
	CloseMin   float64 `json:"close_min"`
	CloseStd   float64 `json:"close_std"`
}

// PredictionSummary condenses a forecast for dashboard display.
type PredictionSummary struct {
	CurrentPrice   float64 `json:"current_price"`
	PredictedPrice float64 `json:"predicted_price"`
	ChangeAmount   float64 `json:"change_amount"`
	ChangePercent  float64 `json:"change_percent"`
	Trend          string  `json:"trend"`
	Volatility     float64 `json:"volatility"`
	PredictionDays int     `json:"prediction_days"`
}

// Prediction is the full result of one forecast request.
type Prediction struct {
	Symbol      string            `json:"symbol"`
	Historical  PriceSeries       `json:"historical_data"`
	Predictions []PredictionRow   `json:"predictions"`
	Summary     PredictionSummary `json:"summary"`
	Sync        SyncResult        `json:"sync"`
	GeneratedAt time.Time         `json:"generated_at"`
}
