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
	"crypto-chart-bot/internal/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultForecastTimeout = 60 * time.Second

	forecastHistoryLimit = 200
	forecastMinCandles   = 10

	textOnlyPath   = "_AI provided a projected path but minimal textual analysis._"
	textNoForecast = "_AI could not provide a detailed forecast or path at this time._"
)

type ForecastRenderer interface {
	RenderForecast(
		hist []domain.Candle,
		points []domain.ForecastPoint,
		horizon domain.Horizon,
		symbol, interval string,
		days int,
	) (*domain.ForecastRender, error)
}

// ForecastResult is ready to deliver. Image is nil when no chart could be drawn; Caption already
// carries the matching note and fits the budget for that case.
type ForecastResult struct {
	RequestID   string
	Symbol      string
	Period      domain.ForecastPeriod
	Caption     string
	Image       []byte
	PathPlotted bool
	// AIError is the collaborator failure, if any. The caption already explains it.
	AIError error
}

type ForecastService struct {
	tracer   trace.Tracer
	fetcher  chart.KlineFetcher
	renderer ForecastRenderer
	ai       TextGenerator
	timeout  time.Duration
	newID    func() string
}

func NewForecastService(
	tracer trace.Tracer,
	fetcher chart.KlineFetcher,
	renderer ForecastRenderer,
	ai TextGenerator,
	timeout time.Duration,
) *ForecastService {
	if timeout <= 0 {
		timeout = DefaultForecastTimeout
	}
	return &ForecastService{
		tracer:   tracer,
		fetcher:  fetcher,
		renderer: renderer,
		ai:       ai,
		timeout:  timeout,
		newID:    newRequestID,
	}
}

// Forecast runs fetch, prompt, parse, overlay and caption for one period key ("24h", "1d", "3d", "7d").
// Only invalid input and missing history are errors; AI and render failures are reported in the result.
func (s *ForecastService) Forecast(ctx context.Context, symbol, periodKey string) (*ForecastResult, error) {
	ctx, span := s.tracer.Start(ctx, "forecast-service.forecast")
	defer span.End()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	periodKey = strings.ToLower(strings.TrimSpace(periodKey))
	if periodKey == "" {
		periodKey = domain.DefaultForecastPeriod
	}
	period, ok := domain.LookupForecastPeriod(periodKey)
	if !ok || symbol == "" {
		return nil, fmt.Errorf("%w: period must be one of %s", domain.ErrInvalidArgument, strings.Join(domain.ForecastPeriodKeys, ", "))
	}

	reqID := s.newID()
	span.SetAttributes(
		attribute.String("request_id", reqID),
		attribute.String("symbol", symbol),
		attribute.String("period", period.Key),
	)

	limit := min(period.HistoryDays*domain.CandlesPerDay(period.HistoryInterval), forecastHistoryLimit)
	raw, err := s.fetcher.FetchKlines(ctx, symbol, period.HistoryInterval, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("[%s] fetch %s history: %w", reqID, symbol, err)
	}
	if len(raw) < forecastMinCandles {
		return nil, fmt.Errorf("%w for %s (%d candles)", domain.ErrInsufficientData, symbol, len(raw))
	}
	hist := domain.Chronological(raw)

	result := &ForecastResult{RequestID: reqID, Symbol: symbol, Period: period}

	var (
		base     string
		points   []domain.ForecastPoint
		hasBlock bool
	)
	prompt := forecast.ForecastPrompt(symbol, period.HistoryInterval, period.HistoryDays, period.Horizon, hist)
	text, err := generate(ctx, s.ai, "forecast", prompt, s.timeout)
	if err != nil {
		log.Printf("[%s] forecast analysis failed for %s: %v", reqID, symbol, err)
		result.AIError = err
		base = fmt.Sprintf("[%s] %s", reqID, AIFailureMessage(err))
	} else {
		var textual string
		textual, _, hasBlock = forecast.Split(text)
		textual = forecast.StripIntro(textual, symbol, period.Horizon)
		if textual == "" {
			textual = textNoForecast
			if hasBlock {
				textual = textOnlyPath
			}
		}
		if parsed := forecast.ParsePath(text); parsed.Found() {
			points = parsed.Points
		}
		base = fmt.Sprintf("🔮 [%s] AI Price Forecast for %s (%s):\n%s", reqID, symbol, period.Horizon, textual)
	}

	start := time.Now()
	rendered, err := s.renderer.RenderForecast(hist, points, period.Horizon, symbol, period.HistoryInterval, period.HistoryDays)
	metrics.ObserveRender("forecast", start, err)
	if err != nil {
		log.Printf("[%s] forecast chart failed for %s: %v", reqID, symbol, err)
		span.RecordError(err)
	} else {
		result.Image = rendered.Image
		result.PathPlotted = rendered.PathPlotted
	}

	note := caption.SelectNote(result.Image != nil, hasBlock, result.PathPlotted)
	result.Caption = caption.Compose(base, note)
	span.SetAttributes(
		attribute.Int("points", len(points)),
		attribute.Bool("path_plotted", result.PathPlotted),
	)
	return result, nil
}
