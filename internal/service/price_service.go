package service

import (
	"context"
	"fmt"
	"strings"

	"crypto-chart-bot/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type TickerFetcher interface {
	Ticker(ctx context.Context, symbol string) (*domain.PriceSnapshot, error)
}

type PriceService struct {
	tracer  trace.Tracer
	tickers TickerFetcher
}

func NewPriceService(tracer trace.Tracer, tickers TickerFetcher) *PriceService {
	return &PriceService{tracer: tracer, tickers: tickers}
}

func (s *PriceService) Snapshot(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "price-service.snapshot")
	defer span.End()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	span.SetAttributes(attribute.String("symbol", symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidArgument)
	}

	snap, err := s.tickers.Ticker(ctx, symbol)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("ticker %s: %w", symbol, err)
	}
	return snap, nil
}
