package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"crypto-chart-bot/internal/advisor"
	"crypto-chart-bot/internal/chart"
	"crypto-chart-bot/internal/domain"
	"crypto-chart-bot/internal/forecast"
	"crypto-chart-bot/internal/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultPatternTimeout = 45 * time.Second

	PatternUnavailable = "Pattern analysis not available."
	PatternFailed      = "Error during pattern analysis."
)

type ChartResolver interface {
	Resolve(ctx context.Context, symbol, interval string, days int) (*chart.Resolution, error)
}

type CandlestickRenderer interface {
	RenderCandlestick(candles []domain.Candle, symbol, interval string, days int) ([]byte, error)
}

type ChartService struct {
	tracer         trace.Tracer
	resolver       ChartResolver
	renderer       CandlestickRenderer
	ai             TextGenerator
	patternTimeout time.Duration
}

func NewChartService(
	tracer trace.Tracer,
	resolver ChartResolver,
	renderer CandlestickRenderer,
	ai TextGenerator,
	patternTimeout time.Duration,
) *ChartService {
	if patternTimeout <= 0 {
		patternTimeout = DefaultPatternTimeout
	}
	return &ChartService{
		tracer:         tracer,
		resolver:       resolver,
		renderer:       renderer,
		ai:             ai,
		patternTimeout: patternTimeout,
	}
}

// CreatePriceChart resolves a dataset under the fallback policy, renders it, and asks the AI for
// pattern insights on the same candles. Pattern analysis never fails the chart.
func (s *ChartService) CreatePriceChart(ctx context.Context, symbol, interval string, days int) (*domain.RenderedChart, error) {
	ctx, span := s.tracer.Start(ctx, "chart-service.create-price-chart")
	defer span.End()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("interval", interval),
		attribute.Int("days", days),
	)
	if symbol == "" || days <= 0 {
		return nil, fmt.Errorf("%w: symbol and a positive day count are required", domain.ErrInvalidArgument)
	}

	res, err := s.resolver.Resolve(ctx, symbol, interval, days)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("resolve %s chart data: %w", symbol, err)
	}
	if res.Fallback(interval, days) {
		log.Printf("chart for %s fell back from %s/%dd to %s/%dd", symbol, interval, days, res.Interval, res.Days)
	}
	span.SetAttributes(
		attribute.String("interval_used", res.Interval),
		attribute.Int("days_used", res.Days),
		attribute.Int("candles", len(res.Candles)),
	)

	start := time.Now()
	img, err := s.renderer.RenderCandlestick(res.Candles, symbol, res.Interval, res.Days)
	metrics.ObserveRender("candlestick", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("render %s chart: %w", symbol, err)
	}

	return &domain.RenderedChart{
		Image:           img,
		IntervalUsed:    res.Interval,
		DaysUsed:        res.Days,
		PatternAnalysis: s.patternAnalysis(ctx, symbol, res),
	}, nil
}

func (s *ChartService) patternAnalysis(ctx context.Context, symbol string, res *chart.Resolution) string {
	if !aiEnabled(s.ai) {
		return PatternUnavailable
	}

	prompt := forecast.PatternPrompt(symbol, res.Interval, res.Days, res.Candles)
	text, err := generate(ctx, s.ai, "pattern", prompt, s.patternTimeout)
	if err != nil {
		log.Printf("pattern analysis failed for %s: %v", symbol, err)
		var blocked *advisor.BlockedError
		switch {
		case errors.Is(err, domain.ErrProviderDisabled):
			return PatternUnavailable
		case errors.As(err, &blocked):
			return "Pattern analysis blocked: " + blocked.Reason
		default:
			return PatternFailed
		}
	}
	return text
}

// HasPatternInsight reports whether analysis carries model output worth showing.
func HasPatternInsight(analysis string) bool {
	return analysis != "" && analysis != PatternUnavailable
}
