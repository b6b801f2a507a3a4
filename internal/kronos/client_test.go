package kronos

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Kronos/internal/domain/models"
	"Kronos/internal/domain/repository"
)

func testParams(horizon int) *repository.PredictParams {
	history := make(models.PriceSeries, 30)
	d := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := range history {
		history[i] = models.PriceBar{
			Date: d, Open: 10, High: 10.2, Low: 9.8, Close: 10,
			Volume: 1000, Amount: 10000,
		}
		d = d.AddDate(0, 0, 1)
	}
	targets := make([]time.Time, horizon)
	for i := range targets {
		targets[i] = d
		d = d.AddDate(0, 0, 1)
	}
	return &repository.PredictParams{
		History:     history,
		TargetDates: targets,
		Horizon:     horizon,
		Temperature: 1.0,
		TopP:        0.9,
		SampleCount: 1,
	}
}

func TestPredictRequestAndResponse(t *testing.T) {
	var got predictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		rows := make([]predictRow, got.PredLen)
		for i := range rows {
			rows[i] = predictRow{Open: 10, High: 10.5, Low: 9.5, Close: 10.1, Volume: 900, Amount: 9090}
		}
		json.NewEncoder(w).Encode(predictResponse{Predictions: rows})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, 512)
	path, err := c.Predict(context.Background(), testParams(5))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	if got.PredLen != 5 || got.Temperature != 1.0 || got.TopP != 0.9 {
		t.Fatalf("unexpected request body %+v", got)
	}
	if len(got.History) != 30 || len(got.HistoryDates) != 30 || len(got.TargetDates) != 5 {
		t.Fatalf("unexpected request lengths %+v", got)
	}
	if got.HistoryDates[0] != "2025-02-01" {
		t.Fatalf("unexpected history date %s", got.HistoryDates[0])
	}

	if len(path) != 5 {
		t.Fatalf("got %d rows", len(path))
	}
	if path[0].Close != 10.1 {
		t.Fatalf("unexpected close %v", path[0].Close)
	}
	// Target dates are assigned positionally to the returned rows.
	if path[0].Date.Format("2006-01-02") != "2025-03-03" {
		t.Fatalf("unexpected date %v", path[0].Date)
	}
}

func TestPredictTruncatesHistoryToMaxContext(t *testing.T) {
	var got predictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		rows := make([]predictRow, got.PredLen)
		for i := range rows {
			rows[i] = predictRow{Open: 10, High: 10.5, Low: 9.5, Close: 10, Volume: 900, Amount: 9000}
		}
		json.NewEncoder(w).Encode(predictResponse{Predictions: rows})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, 10)
	if _, err := c.Predict(context.Background(), testParams(3)); err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(got.History) != 10 {
		t.Fatalf("history not truncated: %d rows", len(got.History))
	}
	// The tail is kept, so the first sent date is the 21st of 30 rows.
	if got.HistoryDates[0] != "2025-02-21" {
		t.Fatalf("unexpected first date %s", got.HistoryDates[0])
	}
}

func TestPredictServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(predictResponse{Error: "model not loaded"})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, 512)
	_, err := c.Predict(context.Background(), testParams(3))
	if !errors.Is(err, models.ErrModelCallFailed) {
		t.Fatalf("expected ErrModelCallFailed, got %v", err)
	}
}

func TestPredictRowCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(predictResponse{Predictions: []predictRow{{Close: 10}}})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, 512)
	_, err := c.Predict(context.Background(), testParams(3))
	if !errors.Is(err, models.ErrModelCallFailed) {
		t.Fatalf("expected ErrModelCallFailed, got %v", err)
	}
}

func TestPredictHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, 512)
	_, err := c.Predict(context.Background(), testParams(3))
	if !errors.Is(err, models.ErrModelCallFailed) {
		t.Fatalf("expected ErrModelCallFailed, got %v", err)
	}
}
