package handler

import (
	"context"
	"errors"
	"net/http"

	"crypto-chart-bot/internal/domain"
	"crypto-chart-bot/internal/metrics"
	"crypto-chart-bot/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
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

type Handler struct {
	tracer    trace.Tracer
	charts    ChartCreator
	forecasts Forecaster
	symbols   SymbolSearcher
}

func New(
	tracer trace.Tracer,
	charts ChartCreator,
	forecasts Forecaster,
	symbols SymbolSearcher,
) *Handler {
	return &Handler{
		tracer:    tracer,
		charts:    charts,
		forecasts: forecasts,
		symbols:   symbols,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/chart/:symbol", h.GetChart)
	r.GET("/api/forecast/:symbol", h.GetForecast)
	r.GET("/api/symbols", h.SearchSymbols)
	r.GET("/api/popular", h.GetPopular)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// Health godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// errorStatus maps pipeline sentinels to HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrUnknownSymbol):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDataUnavailable), errors.Is(err, domain.ErrInsufficientData):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrProviderDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}
