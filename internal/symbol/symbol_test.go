package symbol

import (
	"errors"
	"testing"

	"Kronos/internal/domain/models"
)

func TestNormalizeBareCodes(t *testing.T) {
	cases := []struct {
		raw       string
		primary   string
		secondary string
	}{
		{"600519", "600519", "600519.SS"},
		{"688981", "688981", "688981.SS"},
		{"000001", "000001", "000001.SZ"},
		{"300750", "300750", "300750.SZ"},
	}
	for _, c := range cases {
		got, err := Normalize(c.raw)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", c.raw, err)
		}
		if got.Primary != c.primary || got.Secondary != c.secondary {
			t.Fatalf("%s: got %+v", c.raw, got)
		}
	}
}

func TestNormalizeSuffixCanonicalization(t *testing.T) {
	// SH and SS both mean Shanghai; SH is rewritten to the canonical SS.
	for _, raw := range []string{"600519.SH", "600519.SS", "600519.sh"} {
		got, err := Normalize(raw)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", raw, err)
		}
		if got.Primary != "600519" || got.Secondary != "600519.SS" {
			t.Fatalf("%s: got %+v", raw, got)
		}
	}

	got, err := Normalize("000001.sz")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got.Secondary != "000001.SZ" {
		t.Fatalf("got %+v", got)
	}
}

func TestNormalizePassThrough(t *testing.T) {
	got, err := Normalize("AAPL")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got.Primary != "AAPL" || got.Secondary != "AAPL" {
		t.Fatalf("got %+v", got)
	}
}

func TestNormalizeRejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "990001", "600519.SS.X"} {
		_, err := Normalize(raw)
		if !errors.Is(err, models.ErrInvalidSymbol) {
			t.Fatalf("%q: expected ErrInvalidSymbol, got %v", raw, err)
		}
	}
}

func TestClassify(t *testing.T) {
	if Classify("600519") != BoardShanghai || Classify("688981") != BoardShanghai {
		t.Fatalf("expected Shanghai")
	}
	if Classify("000001") != BoardShenzhen || Classify("300750") != BoardShenzhen {
		t.Fatalf("expected Shenzhen")
	}
	if Classify("990001") != BoardUnknown {
		t.Fatalf("expected unknown board")
	}
}

func TestLimitFor(t *testing.T) {
	cases := map[string]float64{
		"ST0001":    0.05,
		"*ST0002":   0.05,
		"st0003":    0.05,
		"688981":    0.20,
		"300750":    0.20,
		"600519":    0.10,
		"000001":    0.10,
		"600519.SS": 0.10,
	}
	for code, want := range cases {
		if got := LimitFor(code); got != want {
			t.Fatalf("%s: got %v, want %v", code, got, want)
		}
	}
}
