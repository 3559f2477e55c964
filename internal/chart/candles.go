package chart

import (
	"fmt"
	"image"
	"strings"

	"crypto-chart-bot/internal/domain"
)

// RenderCandlestick draws a two panel chart: candles with a close line above a volume histogram.
// candles must be in ascending time order. An empty dataset returns domain.ErrNoChartData.
func (r *Renderer) RenderCandlestick(candles []domain.Candle, symbol, interval string, days int) ([]byte, error) {
	if len(candles) == 0 {
		return nil, domain.ErrNoChartData
	}

	width, height := r.width, r.height
	title := fmt.Sprintf("%s/USDT Price Chart (%s, %d days)", strings.ToUpper(symbol), interval, days)

	return render(width, height, func(s *surface) error {
		priceRect := image.Rect(110, 70, width-30, 70+(height-190)*3/4)
		volumeRect := image.Rect(110, priceRect.Max.Y+20, width-30, height-100)

		lo, hi := priceBounds(candles)
		yMin, yMax := displayRange(lo, hi)
		from, to := timeWindow(candles, interval)
		xMin, xMax := float64(from.UnixMilli()), float64(to.UnixMilli())

		price := newPlotArea(priceRect, xMin, xMax, yMin, yMax)
		policy := DateTickPolicyFor(interval, days)

		drawTitle(s, title)
		drawPriceAxis(s, price, tickSpan(lo, hi))
		drawTimeAxis(s, price, policy, from, to, volumeRect.Max.Y+22)
		drawCandles(s, price, candles, interval)
		s.polyline(closePath(price, candles), colCloseLine, 1.5, nil)
		drawLegend(s, priceRect, []legendEntry{{label: "Close Price", col: colCloseLine}})
		drawFrame(s, priceRect)

		drawVolume(s, volumeRect, xMin, xMax, candles, interval)
		drawFrame(s, volumeRect)

		drawFooter(s, candleFooter(candles))
		return nil
	})
}
