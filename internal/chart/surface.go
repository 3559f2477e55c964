package chart

import (
	"bytes"
	"errors"
	"image"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type textAlign int

const (
	alignLeft textAlign = iota
	alignCenter
	alignRight
)

var errSurfaceReleased = errors.New("drawing surface already released")

// surface owns one raster canvas for the duration of a single render call.
// It is never shared between calls.
type surface struct {
	r      gochart.Renderer
	width  int
	height int
}

func newSurface(width, height int) (*surface, error) {
	r, err := gochart.PNG(width, height)
	if err != nil {
		return nil, err
	}
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return nil, err
	}
	r.SetDPI(gochart.DefaultDPI)
	r.SetFont(font)
	return &surface{r: r, width: width, height: height}, nil
}

// release drops the canvas. Any later draw call panics and is reported as a render failure.
func (s *surface) release() {
	s.r = nil
}

func (s *surface) bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

func (s *surface) fillRect(rect image.Rectangle, col drawing.Color) {
	s.r.SetFillColor(col)
	s.r.SetStrokeWidth(0)
	s.r.MoveTo(rect.Min.X, rect.Min.Y)
	s.r.LineTo(rect.Max.X, rect.Min.Y)
	s.r.LineTo(rect.Max.X, rect.Max.Y)
	s.r.LineTo(rect.Min.X, rect.Max.Y)
	s.r.Close()
	s.r.Fill()
}

func (s *surface) line(x0, y0, x1, y1 int, col drawing.Color, width float64) {
	s.polyline([]image.Point{{X: x0, Y: y0}, {X: x1, Y: y1}}, col, width, nil)
}

func (s *surface) polyline(pts []image.Point, col drawing.Color, width float64, dash []float64) {
	if len(pts) < 2 {
		return
	}
	s.r.SetStrokeColor(col)
	s.r.SetStrokeWidth(width)
	s.r.SetStrokeDashArray(dash)
	s.r.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		s.r.LineTo(p.X, p.Y)
	}
	s.r.Stroke()
	s.r.SetStrokeDashArray(nil)
}

func (s *surface) circle(x, y int, radius float64, col drawing.Color) {
	s.r.SetFillColor(col)
	s.r.SetStrokeColor(col)
	s.r.SetStrokeWidth(1)
	s.r.SetStrokeDashArray(nil)
	s.r.Circle(radius, x, y)
	s.r.FillStroke()
}

// text draws body with its baseline at y.
func (s *surface) text(body string, x, y int, size float64, col drawing.Color, align textAlign) {
	s.r.SetFontSize(size)
	s.r.SetFontColor(col)
	switch align {
	case alignCenter:
		x -= s.r.MeasureText(body).Width() / 2
	case alignRight:
		x -= s.r.MeasureText(body).Width()
	}
	s.r.Text(body, x, y)
}

func (s *surface) textHeight(body string, size float64) int {
	s.r.SetFontSize(size)
	return s.r.MeasureText(body).Height()
}

func (s *surface) encode() ([]byte, error) {
	if s.r == nil {
		return nil, errSurfaceReleased
	}
	var buf bytes.Buffer
	if err := s.r.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
