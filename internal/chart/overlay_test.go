package chart

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"crypto-chart-bot/internal/domain"
)

func TestProjectPathThreeDays(t *testing.T) {
	last := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	parsed := []domain.ForecastPoint{
		{TimestampMs: 1, Price: 10},
		{TimestampMs: 2, Price: 11},
		{TimestampMs: 3, Price: 12},
		{TimestampMs: 4, Price: 13},
		{TimestampMs: 5, Price: 14},
	}

	got := ProjectPath(last, parsed, domain.HorizonNext3Days)
	if len(got) != 3 {
		t.Fatalf("expected 3 points, got %d", len(got))
	}
	day := (24 * time.Hour).Milliseconds()
	prev := last
	for i, pt := range got {
		if pt.TimestampMs <= last {
			t.Fatalf("point %d is not after the last historical candle", i)
		}
		if pt.TimestampMs-prev != day {
			t.Fatalf("point %d is %dms after the previous one, want %d", i, pt.TimestampMs-prev, day)
		}
		if pt.Price != parsed[i].Price {
			t.Fatalf("point %d price changed: %v", i, pt.Price)
		}
		prev = pt.TimestampMs
	}
}

func TestProjectPathAcceptsFewerPoints(t *testing.T) {
	got := ProjectPath(0, []domain.ForecastPoint{{Price: 1}, {Price: 2}}, domain.HorizonNext24Hours)
	if len(got) != 2 {
		t.Fatalf("expected 2 points, got %d", len(got))
	}
	if got[1].TimestampMs != (8 * time.Hour).Milliseconds() {
		t.Fatalf("expected 4h spacing, got %+v", got)
	}
}

func TestProjectPathUnknownHorizonKeepsAllPoints(t *testing.T) {
	got := ProjectPath(0, make([]domain.ForecastPoint, 9), "next fortnight")
	if len(got) != 9 {
		t.Fatalf("expected all 9 points, got %d", len(got))
	}
}

func TestRenderForecastWithPath(t *testing.T) {
	hist := buildTestCandles(126, 4*time.Hour)
	points := []domain.ForecastPoint{{Price: 49000}, {Price: 49500}, {Price: 51000}, {Price: 52000}}

	out, err := NewRenderer().RenderForecast(hist, points, domain.HorizonNext3Days, "ETH", "4h", 21)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !out.PathPlotted {
		t.Fatal("expected path to be plotted")
	}
	if !bytes.HasPrefix(out.Image, pngMagic) {
		t.Fatal("expected PNG output")
	}
}

func TestRenderForecastHistoryOnly(t *testing.T) {
	hist := buildTestCandles(60, 24*time.Hour)
	out, err := NewRenderer().RenderForecast(hist, nil, domain.HorizonNext7Days, "SOL", "1d", 60)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if out.PathPlotted {
		t.Fatal("expected no path")
	}
	if len(out.Image) == 0 {
		t.Fatal("expected history image")
	}
}

func TestRenderForecastFlatUnion(t *testing.T) {
	hist := []domain.Candle{{OpenTimeMs: 0, Open: 2, High: 2, Low: 2, Close: 2}}
	out, err := NewRenderer().RenderForecast(hist, []domain.ForecastPoint{{Price: 2}}, domain.HorizonNext24Hours, "X", "1h", 7)
	if err != nil {
		t.Fatalf("flat union should render, got %v", err)
	}
	if !out.PathPlotted {
		t.Fatal("expected path to be plotted")
	}
}

func TestFlatSeriesTickLabels(t *testing.T) {
	span := tickSpan(60000, 60000)
	if span != 6000 {
		t.Fatalf("expected 6000 fallback span, got %v", span)
	}
	if got := FormatPriceTick(57000, span); got != "$57,000.00" {
		t.Fatalf("unexpected tick label %q", got)
	}
}

func TestRenderForecastDrawsCandles(t *testing.T) {
	bull := buildTestCandles(30, 4*time.Hour)
	bear := make([]domain.Candle, len(bull))
	for i := range bull {
		c := bull[i]
		c.High = c.Close + 80
		c.Low = c.Close - 80
		bull[i], bear[i] = c, c
		bull[i].Open = c.Close - 50
		bear[i].Open = c.Close + 50
	}
	points := []domain.ForecastPoint{{Price: bull[len(bull)-1].Close + 100}}

	r := NewRenderer()
	up, err := r.RenderForecast(bull, points, domain.HorizonNext24Hours, "BTC", "4h", 7)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	down, err := r.RenderForecast(bear, points, domain.HorizonNext24Hours, "BTC", "4h", 7)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if bytes.Equal(up.Image, down.Image) {
		t.Fatal("candle direction should change the forecast image")
	}
}

func TestRenderForecastEmptyHistory(t *testing.T) {
	out, err := NewRenderer().RenderForecast(nil, []domain.ForecastPoint{{Price: 1}}, domain.HorizonNext3Days, "BTC", "4h", 21)
	if !errors.Is(err, domain.ErrNoChartData) {
		t.Fatalf("expected ErrNoChartData, got %v", err)
	}
	if out != nil {
		t.Fatal("expected no render")
	}
}

func TestDisplayRangeDegenerate(t *testing.T) {
	lo, hi := displayRange(100, 100)
	if !(lo < 100 && hi > 100) {
		t.Fatalf("expected widened range, got [%v, %v]", lo, hi)
	}
	lo, hi = displayRange(0, 0)
	if hi-lo != 0.1 {
		t.Fatalf("expected 0.1 fallback span, got %v", hi-lo)
	}
}
