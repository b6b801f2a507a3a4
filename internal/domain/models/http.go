package models

// PredictRequest is the body of POST /api/predict.
type PredictRequest struct {
	StockCode   string  `json:"stock_code" validate:"required,min=1,max=16"`
	Period      string  `json:"period" default:"1y" validate:"oneof=6mo 1y 2y 5y"`
	PredLen     int     `json:"pred_len" default:"30" validate:"gte=1,lte=120"`
	Lookback    int     `json:"lookback" default:"400" validate:"gte=50,lte=5000"`
	Temperature float64 `json:"temperature" default:"1.0" validate:"gte=0.1,lte=2.0"`
	TopP        float64 `json:"top_p" default:"0.9" validate:"gte=0.1,lte=1.0"`
	SampleCount int     `json:"sample_count" default:"30" validate:"gte=1,lte=50"`
}

// RefreshRequest is the body of POST /api/refresh/:code.
type RefreshRequest struct {
	Period string `json:"period" default:"5y" validate:"oneof=6mo 1y 2y 5y"`
}
