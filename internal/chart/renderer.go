package chart

import (
	"fmt"
	"image"
	"math"
	"time"

	"crypto-chart-bot/internal/domain"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	defaultChartWidth     = 1200
	defaultChartHeight    = 800
	defaultForecastHeight = 700

	priceTickCount = 6
	titleFontSize  = 14
	labelFontSize  = 9
	footerFontSize = 10
)

var (
	colBackground = drawing.Color{R: 10, G: 10, B: 10, A: 255}
	colGrid       = drawing.Color{R: 51, G: 51, B: 51, A: 255}
	colText       = drawing.Color{R: 255, G: 255, B: 255, A: 255}
	colMutedText  = drawing.Color{R: 180, G: 180, B: 180, A: 255}
	colBull       = drawing.Color{R: 0, G: 255, B: 136, A: 255}
	colBear       = drawing.Color{R: 255, G: 71, B: 87, A: 255}
	colBullVolume = drawing.Color{R: 0, G: 255, B: 136, A: 178}
	colBearVolume = drawing.Color{R: 255, G: 71, B: 87, A: 178}
	colCloseLine  = drawing.Color{R: 255, G: 165, B: 2, A: 255}
	colPredicted  = drawing.Color{R: 65, G: 105, B: 225, A: 255}
	colLegendBox  = drawing.Color{R: 25, G: 25, B: 25, A: 230}
)

// Renderer draws price and forecast charts. It holds no drawing state between calls.
type Renderer struct {
	width  int
	height int
}

func NewRenderer() *Renderer {
	return &Renderer{width: defaultChartWidth, height: defaultChartHeight}
}

// render runs draw on a fresh surface and returns the encoded PNG.
// The surface is released on every path, and panics from the drawing library become ErrRenderFailure.
func render(width, height int, draw func(s *surface) error) (out []byte, err error) {
	s, err := newSurface(width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRenderFailure, err)
	}
	defer s.release()
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("%w: %v", domain.ErrRenderFailure, rec)
		}
	}()

	s.fillRect(s.bounds(), colBackground)
	if err := draw(s); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRenderFailure, err)
	}
	png, err := s.encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRenderFailure, err)
	}
	return png, nil
}

// plotArea maps data coordinates into a pixel rectangle.
type plotArea struct {
	rect image.Rectangle
	x    gochart.ContinuousRange
	y    gochart.ContinuousRange
}

func newPlotArea(rect image.Rectangle, xMin, xMax, yMin, yMax float64) plotArea {
	if xMax <= xMin {
		xMax = xMin + 1
	}
	if yMax <= yMin {
		yMax = yMin + 1
	}
	return plotArea{
		rect: rect,
		x:    gochart.ContinuousRange{Min: xMin, Max: xMax, Domain: rect.Dx()},
		y:    gochart.ContinuousRange{Min: yMin, Max: yMax, Domain: rect.Dy()},
	}
}

func (p plotArea) X(v float64) int {
	return p.rect.Min.X + p.x.Translate(v)
}

func (p plotArea) Y(v float64) int {
	return p.rect.Max.Y - p.y.Translate(v)
}

func (p plotArea) XTime(t time.Time) int {
	return p.X(float64(t.UnixMilli()))
}

// pixelsPer returns how many horizontal pixels one time step occupies.
func (p plotArea) pixelsPer(step time.Duration) float64 {
	return float64(p.rect.Dx()) * float64(step.Milliseconds()) / (p.x.Max - p.x.Min)
}

// priceBounds returns the low and high over finite candle values.
func priceBounds(candles []domain.Candle) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range candles {
		if isFinite(c.Low) && c.Low < lo {
			lo = c.Low
		}
		if isFinite(c.High) && c.High > hi {
			hi = c.High
		}
	}
	if math.IsInf(lo, 1) || math.IsInf(hi, -1) {
		return 0, 0
	}
	return lo, hi
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// tickSpan is the price span that sizes the axis. A zero span falls back to a tenth of the
// price magnitude so a flat series still gets a readable axis.
func tickSpan(lo, hi float64) float64 {
	span := hi - lo
	if span != 0 {
		return span
	}
	if span = math.Abs(lo) * 0.1; span == 0 {
		span = 0.1
	}
	return span
}

// displayRange widens [lo, hi] by a 5% margin, or centres a flat series in its fallback span.
func displayRange(lo, hi float64) (float64, float64) {
	span := tickSpan(lo, hi)
	if hi == lo {
		return lo - span/2, hi + span/2
	}
	margin := span * 0.05
	return lo - margin, hi + margin
}

func timeWindow(candles []domain.Candle, interval string) (time.Time, time.Time) {
	half := domain.IntervalDuration(interval) / 2
	if half == 0 {
		half = 30 * time.Minute
	}
	return candles[0].OpenTime().Add(-half), candles[len(candles)-1].OpenTime().Add(half)
}

func drawTitle(s *surface, title string) {
	s.text(title, s.width/2, 42, titleFontSize, colText, alignCenter)
}

func drawFooter(s *surface, footer string) {
	s.text(footer, s.width/2, s.height-24, footerFontSize, colText, alignCenter)
}

func drawPriceAxis(s *surface, p plotArea, span float64) {
	for i := 0; i < priceTickCount; i++ {
		v := p.y.Min + (p.y.Max-p.y.Min)*float64(i)/float64(priceTickCount-1)
		y := p.Y(v)
		s.line(p.rect.Min.X, y, p.rect.Max.X, y, colGrid, 0.5)
		label := FormatPriceTick(v, span)
		s.text(label, p.rect.Min.X-8, y+s.textHeight(label, labelFontSize)/2, labelFontSize, colMutedText, alignRight)
	}
}

func drawTimeAxis(s *surface, p plotArea, policy DateTickPolicy, from, to time.Time, labelY int) {
	for _, t := range policy.Ticks(from, to) {
		x := p.XTime(t)
		s.line(x, p.rect.Min.Y, x, p.rect.Max.Y, colGrid, 0.5)
		s.text(t.Format(policy.Layout), x, labelY, labelFontSize, colMutedText, alignCenter)
	}
}

func drawFrame(s *surface, rect image.Rectangle) {
	s.polyline([]image.Point{
		rect.Min,
		{X: rect.Max.X, Y: rect.Min.Y},
		rect.Max,
		{X: rect.Min.X, Y: rect.Max.Y},
		rect.Min,
	}, colGrid, 1, nil)
}

// candleColor classifies a candle as up or down.
func candleColor(c domain.Candle) drawing.Color {
	if c.Bullish() {
		return colBull
	}
	return colBear
}

func volumeColor(c domain.Candle) drawing.Color {
	if c.Bullish() {
		return colBullVolume
	}
	return colBearVolume
}

func drawCandles(s *surface, p plotArea, candles []domain.Candle, interval string) {
	bodyWidth := max(1, int(p.pixelsPer(domain.IntervalDuration(interval))*0.6))
	for _, c := range candles {
		x := p.XTime(c.OpenTime())
		col := candleColor(c)
		s.line(x, p.Y(c.High), x, p.Y(c.Low), col, 1)

		openY, closeY := p.Y(c.Open), p.Y(c.Close)
		top, bottom := min(openY, closeY), max(openY, closeY)
		if bottom-top < 1 {
			bottom = top + 1
		}
		s.fillRect(image.Rect(x-bodyWidth/2, top, x-bodyWidth/2+bodyWidth, bottom), col)
	}
}

func closePath(p plotArea, candles []domain.Candle) []image.Point {
	pts := make([]image.Point, 0, len(candles))
	for _, c := range candles {
		if !isFinite(c.Close) {
			continue
		}
		pts = append(pts, image.Point{X: p.XTime(c.OpenTime()), Y: p.Y(c.Close)})
	}
	return pts
}

func drawVolume(s *surface, rect image.Rectangle, xMin, xMax float64, candles []domain.Candle, interval string) {
	maxVol := 0.0
	for _, c := range candles {
		if isFinite(c.Volume) && c.Volume > maxVol {
			maxVol = c.Volume
		}
	}
	p := newPlotArea(rect, xMin, xMax, 0, math.Max(maxVol*1.05, 1))

	for _, v := range []float64{0, maxVol / 2, maxVol} {
		y := p.Y(v)
		s.line(rect.Min.X, y, rect.Max.X, y, colGrid, 0.5)
		label := FormatVolumeTick(v)
		s.text(label, rect.Min.X-8, y+s.textHeight(label, labelFontSize)/2, labelFontSize, colMutedText, alignRight)
	}

	barWidth := max(1, int(p.pixelsPer(domain.IntervalDuration(interval))*0.6))
	for _, c := range candles {
		if !isFinite(c.Volume) || c.Volume <= 0 {
			continue
		}
		x := p.XTime(c.OpenTime())
		s.fillRect(image.Rect(x-barWidth/2, p.Y(c.Volume), x-barWidth/2+barWidth, rect.Max.Y), volumeColor(c))
	}
	s.text("Volume", rect.Min.X+6, rect.Min.Y+14, labelFontSize, colMutedText, alignLeft)
}

type legendEntry struct {
	label  string
	col    drawing.Color
	dashed bool
}

func drawLegend(s *surface, rect image.Rectangle, entries []legendEntry) {
	const rowHeight = 20
	boxWidth := 0
	for _, e := range entries {
		s.r.SetFontSize(labelFontSize)
		boxWidth = max(boxWidth, s.r.MeasureText(e.label).Width())
	}
	box := image.Rect(rect.Min.X+10, rect.Min.Y+10, rect.Min.X+10+boxWidth+60, rect.Min.Y+16+rowHeight*len(entries))
	s.fillRect(box, colLegendBox)
	for i, e := range entries {
		y := box.Min.Y + 14 + i*rowHeight
		var dash []float64
		if e.dashed {
			dash = []float64{6, 4}
		}
		s.polyline([]image.Point{{X: box.Min.X + 8, Y: y - 4}, {X: box.Min.X + 38, Y: y - 4}}, e.col, 2, dash)
		s.text(e.label, box.Min.X+46, y, labelFontSize, colText, alignLeft)
	}
}
