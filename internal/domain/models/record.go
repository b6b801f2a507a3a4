package models

import "time"

// PredictionRecord is the durable trace of one completed forecast request.
type PredictionRecord struct {
	ID             int64     `json:"id"`
	Symbol         string    `json:"symbol"`
	Horizon        int       `json:"horizon"`
	Source         string    `json:"source"`
	LastClose      float64   `json:"last_close"`
	PredictedClose float64   `json:"predicted_close"`
	ChangePercent  float64   `json:"change_percent"`
	DurationMS     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}
