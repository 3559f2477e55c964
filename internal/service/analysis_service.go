package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"crypto-chart-bot/internal/caption"
	"crypto-chart-bot/internal/chart"
	"crypto-chart-bot/internal/domain"
	"crypto-chart-bot/internal/forecast"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultAnalyzeInterval = domain.Interval4h
	DefaultAnalyzeDays     = 7
	MaxAnalyzeDays         = 90

	analyzeReplyLimit = 4000
	analyzeEllipsis   = "\n\n_(...analysis truncated due to length)_"
)

type AnalysisResult struct {
	RequestID string
	Symbol    string
	Interval  string
	Days      int
	Text      string
}

type AnalysisService struct {
	tracer  trace.Tracer
	fetcher chart.KlineFetcher
	ai      TextGenerator
	timeout time.Duration
	newID   func() string
}

func NewAnalysisService(tracer trace.Tracer, fetcher chart.KlineFetcher, ai TextGenerator, timeout time.Duration) *AnalysisService {
	if timeout <= 0 {
		timeout = DefaultForecastTimeout
	}
	return &AnalysisService{
		tracer:  tracer,
		fetcher: fetcher,
		ai:      ai,
		timeout: timeout,
		newID:   newRequestID,
	}
}

// Analyze asks the AI for a pattern read of the most recent candles. Days only sets the context
// given to the model; the fetch is always the latest candles at interval.
func (s *AnalysisService) Analyze(ctx context.Context, symbol, interval string, days int) (*AnalysisResult, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze")
	defer span.End()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if interval == "" {
		interval = DefaultAnalyzeInterval
	}
	if days == 0 {
		days = DefaultAnalyzeDays
	}
	if symbol == "" || !domain.IsSupportedInterval(interval) {
		return nil, fmt.Errorf("%w: interval must be one of %s", domain.ErrInvalidArgument, strings.Join(domain.SupportedIntervals, ", "))
	}
	if days < 1 || days > MaxAnalyzeDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", domain.ErrInvalidArgument, MaxAnalyzeDays)
	}
	if !aiEnabled(s.ai) {
		return nil, domain.ErrProviderDisabled
	}

	reqID := s.newID()
	span.SetAttributes(
		attribute.String("request_id", reqID),
		attribute.String("symbol", symbol),
		attribute.String("interval", interval),
		attribute.Int("days", days),
	)

	raw, err := s.fetcher.FetchKlines(ctx, symbol, interval, forecast.AnalyzeFetchCandles)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch %s candles: %w", symbol, err)
	}
	if len(raw) < forecast.AnalyzeMinCandles {
		return nil, fmt.Errorf("%w for %s at %s (%d candles)", domain.ErrInsufficientData, symbol, interval, len(raw))
	}

	prompt := forecast.AnalyzePrompt(symbol, interval, days, domain.Chronological(raw))
	text, err := generate(ctx, s.ai, "analyze", prompt, s.timeout)
	if err != nil {
		log.Printf("[%s] analyze failed for %s: %v", reqID, symbol, err)
		span.RecordError(err)
		return nil, err
	}

	body := text
	if !strings.Contains(body, forecast.Disclaimer) {
		body = forecast.Disclaimer + "\n\n" + body
	}
	body = caption.Truncate(body, analyzeReplyLimit, analyzeEllipsis)

	return &AnalysisResult{
		RequestID: reqID,
		Symbol:    symbol,
		Interval:  interval,
		Days:      days,
		Text: fmt.Sprintf("🔍 [%s] **%s (%s, %dd context) - AI Chart Pattern Analysis:**\n\n%s",
			reqID, symbol, interval, days, body),
	}, nil
}
