package service

import (
	"context"
	"time"

	"crypto-chart-bot/internal/chart"
	"crypto-chart-bot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubAI struct {
	text    string
	err     error
	prompts []string
}

func (s *stubAI) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.text, s.err
}

type disabledAI struct{ stubAI }

func (disabledAI) Enabled() bool { return false }

type stubFetcher struct {
	candles []domain.Candle
	err     error
	calls   []string
	limits  []int
}

func (s *stubFetcher) FetchKlines(_ context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	s.calls = append(s.calls, symbol+"/"+interval)
	s.limits = append(s.limits, limit)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.candles) > limit {
		return s.candles[:limit], nil
	}
	return s.candles, nil
}

type stubResolver struct {
	res *chart.Resolution
	err error
}

func (s *stubResolver) Resolve(context.Context, string, string, int) (*chart.Resolution, error) {
	return s.res, s.err
}

type stubCandleRenderer struct {
	img []byte
	err error
}

func (s *stubCandleRenderer) RenderCandlestick([]domain.Candle, string, string, int) ([]byte, error) {
	return s.img, s.err
}

type stubForecastRenderer struct {
	err        error
	gotPoints  []domain.ForecastPoint
	gotHorizon domain.Horizon
}

func (s *stubForecastRenderer) RenderForecast(
	hist []domain.Candle,
	points []domain.ForecastPoint,
	horizon domain.Horizon,
	symbol, interval string,
	days int,
) (*domain.ForecastRender, error) {
	s.gotPoints, s.gotHorizon = points, horizon
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ForecastRender{Image: []byte("png"), PathPlotted: len(points) > 0}, nil
}

// newestFirst builds count hourly candles in the order the exchange delivers them.
func newestFirst(count int) []domain.Candle {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Candle, count)
	for i := range count {
		price := 100 + float64(i)
		out[count-1-i] = domain.Candle{
			OpenTimeMs: base.Add(time.Duration(i) * time.Hour).UnixMilli(),
			Open:       price,
			High:       price + 2,
			Low:        price - 2,
			Close:      price + 1,
			Volume:     1000,
		}
	}
	return out
}

func fixedID() string { return "abcd1234" }
