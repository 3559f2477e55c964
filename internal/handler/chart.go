package handler

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	"crypto-chart-bot/internal/domain"
	"crypto-chart-bot/internal/symbols"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultChartInterval = domain.Interval1h
	defaultChartDays     = 7
	maxChartDays         = 365
)

type forecastResponse struct {
	RequestID   string `json:"request_id"`
	Symbol      string `json:"symbol"`
	Period      string `json:"period"`
	Caption     string `json:"caption"`
	PathPlotted bool   `json:"path_plotted"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

// GetChart godoc
// @Summary      Render a candlestick chart
// @Description  Renders a PNG for the symbol. When the requested window has no data the closest populated interval/day pair is used and reported in the X-Interval-Used and X-Days-Used headers.
// @Tags         charts
// @Produce      png
// @Param        symbol    path   string  true   "Base coin (e.g., BTC, ETH)"
// @Param        interval  query  string  false  "Candle interval (1h, 4h, 1d)"  default(1h)
// @Param        days      query  int     false  "Days of history (1-365)"  default(7)
// @Success      200  {file}    binary
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Failure      504  {object}  map[string]string
// @Router       /api/chart/{symbol} [get]
func (h *Handler) GetChart(c *gin.Context) {
	if h.charts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chart service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-chart")
	defer span.End()

	symbol := symbols.Normalize(c.Param("symbol"))
	interval := strings.ToLower(strings.TrimSpace(c.DefaultQuery("interval", defaultChartInterval)))
	if !domain.IsSupportedInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               "unsupported interval: " + interval,
			"supported_intervals": domain.SupportedIntervals,
		})
		return
	}
	days, err := strconv.Atoi(strings.TrimSpace(c.DefaultQuery("days", strconv.Itoa(defaultChartDays))))
	if err != nil || days < 1 || days > maxChartDays {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365"})
		return
	}
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("interval", interval),
		attribute.Int("days", days),
	)

	rc, err := h.charts.CreatePriceChart(ctx, symbol, interval, days)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeError(c, err)
		return
	}

	c.Header("X-Interval-Used", rc.IntervalUsed)
	c.Header("X-Days-Used", strconv.Itoa(rc.DaysUsed))
	c.Data(http.StatusOK, "image/png", rc.Image)
}

// GetForecast godoc
// @Summary      Render an AI price forecast
// @Description  Returns the forecast caption and, when a chart could be drawn, the PNG encoded as base64. AI failures are explained in the caption rather than returned as errors.
// @Tags         charts
// @Produce      json
// @Param        symbol  path   string  true   "Base coin (e.g., BTC, ETH)"
// @Param        period  query  string  false  "Forecast period (24h, 1d, 3d, 7d)"  default(24h)
// @Success      200  {object}  forecastResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      504  {object}  map[string]string
// @Router       /api/forecast/{symbol} [get]
func (h *Handler) GetForecast(c *gin.Context) {
	if h.forecasts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "forecast service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-forecast")
	defer span.End()

	symbol := symbols.Normalize(c.Param("symbol"))
	period := strings.ToLower(strings.TrimSpace(c.DefaultQuery("period", domain.DefaultForecastPeriod)))
	if _, ok := domain.LookupForecastPeriod(period); !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported period: " + period,
			"supported_periods": domain.ForecastPeriodKeys,
		})
		return
	}
	span.SetAttributes(attribute.String("symbol", symbol), attribute.String("period", period))

	res, err := h.forecasts.Forecast(ctx, symbol, period)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeError(c, err)
		return
	}

	resp := forecastResponse{
		RequestID:   res.RequestID,
		Symbol:      res.Symbol,
		Period:      res.Period.Key,
		Caption:     res.Caption,
		PathPlotted: res.PathPlotted,
	}
	if len(res.Image) > 0 {
		resp.ImageBase64 = base64.StdEncoding.EncodeToString(res.Image)
	}
	c.JSON(http.StatusOK, resp)
}
