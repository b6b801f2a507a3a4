// Package kronos is the HTTP client for the external forecasting model
// service. The model itself (architecture, tokenization, training) lives
// behind this contract and is not part of this repository.
package kronos

import (
	"context"
	"fmt"
	"time"

	"Kronos/internal/domain/models"
	"Kronos/internal/domain/repository"
	xhttp "Kronos/pkg/http"
	"Kronos/pkg/util"
)

// Client posts predict requests to the model service.
type Client struct {
	baseURL    string
	maxContext int
	client     *xhttp.Client
}

// New builds a model client. maxContext caps the history rows sent per call.
func New(baseURL string, timeout time.Duration, maxContext int) *Client {
	if maxContext <= 0 {
		maxContext = 512
	}
	return &Client{
		baseURL:    baseURL,
		maxContext: maxContext,
		client:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type predictRequest struct {
	History      [][6]float64 `json:"history"`
	HistoryDates []string     `json:"history_dates"`
	TargetDates  []string     `json:"target_dates"`
	PredLen      int          `json:"pred_len"`
	Temperature  float64      `json:"T"`
	TopP         float64      `json:"top_p"`
	TopK         int          `json:"top_k"`
	SampleCount  int          `json:"sample_count"`
}

type predictRow struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
	Amount float64 `json:"amount"`
}

type predictResponse struct {
	Predictions []predictRow `json:"predictions"`
	Error       string       `json:"error,omitempty"`
}

// Predict issues one sampled forecast call. The returned series carries the
// requested target dates in order.
func (c *Client) Predict(ctx context.Context, req *repository.PredictParams) (models.PriceSeries, error) {
	history := req.History.Tail(c.maxContext)

	body := predictRequest{
		History:      make([][6]float64, len(history)),
		HistoryDates: make([]string, len(history)),
		TargetDates:  make([]string, len(req.TargetDates)),
		PredLen:      req.Horizon,
		Temperature:  req.Temperature,
		TopP:         req.TopP,
		TopK:         req.TopK,
		SampleCount:  req.SampleCount,
	}
	for i, b := range history {
		body.History[i] = [6]float64{b.Open, b.High, b.Low, b.Close, b.Volume, b.Amount}
		body.HistoryDates[i] = b.Date.Format(util.DateLayout)
	}
	for i, d := range req.TargetDates {
		body.TargetDates[i] = d.Format(util.DateLayout)
	}

	var resp predictResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/predict",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: body,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrModelCallFailed, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", models.ErrModelCallFailed, resp.Error)
	}
	if len(resp.Predictions) != req.Horizon {
		return nil, fmt.Errorf("%w: got %d rows, want %d", models.ErrModelCallFailed, len(resp.Predictions), req.Horizon)
	}

	path := make(models.PriceSeries, req.Horizon)
	for i, row := range resp.Predictions {
		path[i] = models.PriceBar{
			Date:   req.TargetDates[i],
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
			Amount: row.Amount,
		}
	}
	return path, nil
}

var _ repository.Predictor = (*Client)(nil)
