package source

import (
	"context"
	"fmt"
	"math"
	"time"

	"Kronos/internal/domain/models"
	"Kronos/internal/symbol"
	xhttp "Kronos/pkg/http"
	"Kronos/pkg/util"
)

// PrimaryClient talks to the primary history vendor: a JSON API keyed by bare
// board codes. Its kline endpoint names the turnover column "turnover" and
// serializes dates as YYYYMMDD.
type PrimaryClient struct {
	baseURL string
	client  *xhttp.Client
}

// NewPrimary builds the primary source client.
func NewPrimary(baseURL string, timeout time.Duration) *PrimaryClient {
	return &PrimaryClient{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (p *PrimaryClient) Name() string { return models.SourcePrimary }

type primaryRow struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	Close    float64 `json:"close"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Volume   float64 `json:"volume"`
	Turnover float64 `json:"turnover"`
}

type primaryResponse struct {
	Code int          `json:"code"`
	Msg  string       `json:"msg"`
	Data []primaryRow `json:"data"`
}

// Fetch requests [from, to] daily bars and coerces them into PriceBars.
// Rows with non-positive or non-finite prices are dropped.
func (p *PrimaryClient) Fetch(ctx context.Context, codes symbol.Pair, from, to time.Time) (models.PriceSeries, error) {
	var resp primaryResponse
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    p.baseURL + "/hist/daily",
		QueryParams: map[string][]string{
			"symbol": {codes.Primary},
			"start":  {from.Format("20060102")},
			"end":    {to.Format("20060102")},
			"adjust": {"qfq"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("primary fetch %s: %w", codes.Primary, err)
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("primary fetch %s: vendor code %d (%s)", codes.Primary, resp.Code, resp.Msg)
	}

	series := make(models.PriceSeries, 0, len(resp.Data))
	for _, row := range resp.Data {
		date, ok := util.ParseDate(row.Date)
		if !ok {
			continue
		}
		bar := models.PriceBar{
			Date:   date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
			Amount: row.Turnover,
		}
		if bar.Amount <= 0 || math.IsNaN(bar.Amount) {
			bar.Amount = bar.Close * bar.Volume
		}
		if !bar.Valid() {
			continue
		}
		series = append(series, bar)
	}
	series.SortByDate()
	return series, nil
}
