package chart

import (
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	"crypto-chart-bot/internal/domain"
)

const markerRadius = 3.5

// ProjectPath keeps at most the horizon's point count and re-times each point as a fixed offset
// from the last historical candle. Timestamps found in the AI text are ignored.
// Horizons without a plan keep every point at daily spacing.
func ProjectPath(lastOpenTimeMs int64, points []domain.ForecastPoint, horizon domain.Horizon) []domain.ForecastPoint {
	plan, ok := domain.HorizonPlanFor(horizon)
	if !ok {
		plan = domain.HorizonPlan{Points: len(points), Step: 24 * time.Hour}
	}
	if len(points) > plan.Points {
		points = points[:plan.Points]
	}

	out := make([]domain.ForecastPoint, 0, len(points))
	for i, pt := range points {
		out = append(out, domain.ForecastPoint{
			TimestampMs: lastOpenTimeMs + plan.Step.Milliseconds()*int64(i+1),
			Price:       pt.Price,
		})
	}
	return out
}

// RenderForecast draws the historical candles, close line and volume and, when points are present,
// a dashed predicted path that starts at the last historical close. PathPlotted reports whether any predicted point was drawn.
func (r *Renderer) RenderForecast(
	hist []domain.Candle,
	points []domain.ForecastPoint,
	horizon domain.Horizon,
	symbol, interval string,
	days int,
) (*domain.ForecastRender, error) {
	if len(hist) == 0 {
		return nil, domain.ErrNoChartData
	}

	last := hist[len(hist)-1]
	path := ProjectPath(last.OpenTimeMs, points, horizon)

	lo, hi := priceBounds(hist)
	for _, pt := range path {
		if !isFinite(pt.Price) {
			continue
		}
		lo = math.Min(lo, pt.Price)
		hi = math.Max(hi, pt.Price)
	}
	yMin, yMax := displayRange(lo, hi)

	from, to := timeWindow(hist, interval)
	if len(path) > 0 {
		to = path[len(path)-1].Time().Add(time.Hour)
	}

	width, height := r.width, defaultForecastHeight
	title := fmt.Sprintf("%s/USDT Price Forecast (%s)", strings.ToUpper(symbol), horizon.Title())

	policy := DateTickPolicyFor(interval, days)
	policy.Layout = "01/02 15:04"
	if plan, ok := domain.HorizonPlanFor(horizon); interval == domain.Interval1d || (ok && time.Duration(plan.Points)*plan.Step >= 72*time.Hour) {
		policy.Layout = "01/02"
	}

	img, err := render(width, height, func(s *surface) error {
		rect := image.Rect(110, 70, width-30, 70+(height-190)*3/4)
		volumeRect := image.Rect(110, rect.Max.Y+20, width-30, height-100)
		xMin, xMax := float64(from.UnixMilli()), float64(to.UnixMilli())
		p := newPlotArea(rect, xMin, xMax, yMin, yMax)

		drawTitle(s, title)
		drawPriceAxis(s, p, tickSpan(lo, hi))
		drawTimeAxis(s, p, policy, from, to, volumeRect.Max.Y+22)
		drawCandles(s, p, hist, interval)
		s.polyline(closePath(p, hist), colCloseLine, 1.5, nil)

		legend := []legendEntry{{label: "Historical Close", col: colCloseLine}}
		if len(path) > 0 {
			pts := []image.Point{{X: p.XTime(last.OpenTime()), Y: p.Y(last.Close)}}
			for _, pt := range path {
				pts = append(pts, image.Point{X: p.XTime(pt.Time()), Y: p.Y(pt.Price)})
			}
			s.polyline(pts, colPredicted, 2, []float64{6, 4})
			for _, pt := range pts {
				s.circle(pt.X, pt.Y, markerRadius, colPredicted)
			}
			legend = append(legend, legendEntry{
				label:  fmt.Sprintf("Predicted Path (%s)", horizon.Title()),
				col:    colPredicted,
				dashed: true,
			})
		}
		drawLegend(s, rect, legend)
		drawFrame(s, rect)

		drawVolume(s, volumeRect, xMin, xMax, hist, interval)
		drawFrame(s, volumeRect)
		drawFooter(s, forecastFooter(hist, days))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &domain.ForecastRender{Image: img, PathPlotted: len(path) > 0}, nil
}
