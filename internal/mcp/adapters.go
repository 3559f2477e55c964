package mcp

import (
	"context"

	"crypto-chart-bot/internal/domain"
	"crypto-chart-bot/internal/service"
)

type ChartCreator interface {
	CreatePriceChart(ctx context.Context, symbol, interval string, days int) (*domain.RenderedChart, error)
}

type Forecaster interface {
	Forecast(ctx context.Context, symbol, period string) (*service.ForecastResult, error)
}

type SymbolSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

type PriceQuerier interface {
	Snapshot(ctx context.Context, symbol string) (*domain.PriceSnapshot, error)
}

// Services are the pipelines exposed as tools. A nil field makes its tools report unavailability.
type Services struct {
	Charts    ChartCreator
	Forecasts Forecaster
	Symbols   SymbolSearcher
	Prices    PriceQuerier
}
