package mcp

import "testing"

func TestNormalizeSymbol(t *testing.T) {
	for raw, want := range map[string]string{" btc ": "BTC", "eth/usdt": "ETH", "Bitcoin": "BTC"} {
		got, err := normalizeSymbol(raw)
		if err != nil || got != want {
			t.Fatalf("normalizeSymbol(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := normalizeSymbol(""); err == nil {
		t.Fatal("expected missing symbol error")
	}
	if _, err := normalizeSymbol("btc eth"); err == nil {
		t.Fatal("expected invalid symbol error")
	}
}

func TestNormalizeInterval(t *testing.T) {
	if iv, err := normalizeInterval(""); err != nil || iv != "1h" {
		t.Fatalf("expected default 1h, got %q %v", iv, err)
	}
	if iv, err := normalizeInterval("1D"); err != nil || iv != "1d" {
		t.Fatalf("expected 1d, got %q %v", iv, err)
	}
	if _, err := normalizeInterval("2h"); err == nil {
		t.Fatal("expected unsupported interval error")
	}
}

func TestNormalizeDaysAndPeriod(t *testing.T) {
	if d, err := normalizeDays(0); err != nil || d != defaultChartDays {
		t.Fatalf("expected default days, got %d %v", d, err)
	}
	if _, err := normalizeDays(-1); err == nil {
		t.Fatal("expected negative days error")
	}
	if p, err := normalizePeriod(""); err != nil || p != "24h" {
		t.Fatalf("expected default period, got %q %v", p, err)
	}
	if _, err := normalizePeriod("1w"); err == nil {
		t.Fatal("expected unsupported period error")
	}
}

func TestNormalizeSearchLimit(t *testing.T) {
	if normalizeSearchLimit(0) != 5 || normalizeSearchLimit(7) != 7 || normalizeSearchLimit(99) != maxSearchLimit {
		t.Fatal("unexpected search limit normalization")
	}
}

func TestForecastHorizons(t *testing.T) {
	h := forecastHorizons()
	if len(h) != 4 {
		t.Fatalf("expected 4 horizons, got %d", len(h))
	}
	if h[0].Period != "24h" || h[0].Points != 6 || h[0].StepHours != 4 || h[0].HistoryInterval != "1h" {
		t.Fatalf("unexpected 24h horizon %+v", h[0])
	}
	if h[3].Period != "7d" || h[3].Points != 7 || h[3].HistoryDays != 60 {
		t.Fatalf("unexpected 7d horizon %+v", h[3])
	}
}
