package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Kronos/internal/symbol"
)

func window() (time.Time, time.Time) {
	return time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
}

func TestPrimaryFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") != "600519" || q.Get("adjust") != "qfq" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("start") != "20250310" || q.Get("end") != "20250312" {
			t.Errorf("unexpected window %v", q)
		}
		w.Write([]byte(`{"code":0,"data":[
			{"date":"2025-03-11","open":10,"close":10.2,"high":10.3,"low":9.9,"volume":1000,"turnover":10200},
			{"date":"2025-03-10","open":9.9,"close":10,"high":10.1,"low":9.8,"volume":900,"turnover":0},
			{"date":"bogus","open":1,"close":1,"high":1,"low":1,"volume":1,"turnover":1}
		]}`))
	}))
	defer srv.Close()

	p := NewPrimary(srv.URL, 5*time.Second)
	from, to := window()
	got, err := p.Fetch(context.Background(), symbol.Pair{Primary: "600519", Secondary: "600519.SS"}, from, to)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2 (bogus date dropped)", len(got))
	}
	// Sorted ascending despite vendor order.
	if got[0].Date.After(got[1].Date) {
		t.Fatalf("rows not sorted")
	}
	// Zero turnover is imputed from close and volume.
	if got[0].Amount != 10.0*900 {
		t.Fatalf("amount not imputed: %v", got[0].Amount)
	}
}

func TestPrimaryVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":500,"msg":"rate limited"}`))
	}))
	defer srv.Close()

	p := NewPrimary(srv.URL, 5*time.Second)
	from, to := window()
	if _, err := p.Fetch(context.Background(), symbol.Pair{Primary: "600519"}, from, to); err == nil {
		t.Fatalf("expected vendor error")
	}
}

func TestSecondaryFetch(t *testing.T) {
	// Timestamps for 2025-03-10 and 2025-03-11 UTC; the second close is a
	// JSON null, a halted session, and must be skipped.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/600519.SS" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("unexpected query %v", r.URL.Query())
		}
		w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1741564800,1741651200],
			"indicators":{"quote":[{
				"open":[10,10.1],"high":[10.3,10.4],"low":[9.9,10.0],
				"close":[10.2,null],"volume":[1000,1100]
			}]}
		}],"error":null}}`))
	}))
	defer srv.Close()

	s := NewSecondary(srv.URL, "", 5*time.Second)
	from, to := window()
	got, err := s.Fetch(context.Background(), symbol.Pair{Primary: "600519", Secondary: "600519.SS"}, from, to)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d rows, want 1 (null close dropped)", len(got))
	}
	if got[0].Close != 10.2 || got[0].Amount != 10.2*1000 {
		t.Fatalf("unexpected bar %+v", got[0])
	}
}

func TestSecondaryVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"no data"}}}`))
	}))
	defer srv.Close()

	s := NewSecondary(srv.URL, "", 5*time.Second)
	from, to := window()
	if _, err := s.Fetch(context.Background(), symbol.Pair{Secondary: "UNKNOWN.SS"}, from, to); err == nil {
		t.Fatalf("expected vendor error")
	}
}
