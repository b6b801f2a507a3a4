package source

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"Kronos/internal/domain/models"
	"Kronos/internal/symbol"
	xhttp "Kronos/pkg/http"
	"Kronos/pkg/util"
)

// SecondaryClient covers the fallback vendor, a chart API addressed by
// exchange-suffixed tickers. Quote arrays may contain nulls for halted
// sessions and there is no turnover column at all.
type SecondaryClient struct {
	baseURL   string
	userAgent string
	client    *xhttp.Client
}

// NewSecondary builds the fallback source client.
func NewSecondary(baseURL, userAgent string, timeout time.Duration) *SecondaryClient {
	if userAgent == "" {
		userAgent = "Mozilla/5.0"
	}
	return &SecondaryClient{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (s *SecondaryClient) Name() string { return models.SourceSecondary }

// chartResponse mirrors the vendor's chart payload. OHLCV arrays are
// interface-typed because halted days arrive as JSON nulls.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func numAt(arr []interface{}, i int) (float64, bool) {
	if i >= len(arr) || arr[i] == nil {
		return 0, false
	}
	switch n := arr[i].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// Fetch requests the [from, to] window of daily bars. Turnover is imputed as
// close × volume since the vendor does not report it.
func (s *SecondaryClient) Fetch(ctx context.Context, codes symbol.Pair, from, to time.Time) (models.PriceSeries, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s", s.baseURL, url.PathEscape(codes.Secondary))

	var resp chartResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    u,
		Headers: map[string]string{
			"User-Agent": s.userAgent,
		},
		QueryParams: map[string][]string{
			"interval": {"1d"},
			"period1":  {fmt.Sprintf("%d", util.Day(from).Unix())},
			"period2":  {fmt.Sprintf("%d", util.Day(to).AddDate(0, 0, 1).Unix())},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("secondary fetch %s: %w", codes.Secondary, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("secondary fetch %s: %s", codes.Secondary, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("secondary fetch %s: empty result", codes.Secondary)
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	series := make(models.PriceSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, ok1 := numAt(quote.Open, i)
		h, ok2 := numAt(quote.High, i)
		l, ok3 := numAt(quote.Low, i)
		c, ok4 := numAt(quote.Close, i)
		v, ok5 := numAt(quote.Volume, i)
		if !(ok1 && ok2 && ok3 && ok4 && ok5) {
			continue
		}
		bar := models.PriceBar{
			Date:   util.Day(time.Unix(ts, 0).UTC()),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
			Amount: c * v,
		}
		if !bar.Valid() {
			continue
		}
		series = append(series, bar)
	}
	series.SortByDate()
	return series, nil
}
