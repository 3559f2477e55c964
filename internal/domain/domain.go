package domain

import (
	"slices"
	"time"
)

const (
	Interval1h = "1h"
	Interval4h = "4h"
	Interval1d = "1d"
)

// SupportedIntervals lists the chart intervals in canonical fallback order.
var SupportedIntervals = []string{Interval1h, Interval4h, Interval1d}

var candlesPerDay = map[string]int{
	Interval1h: 24,
	Interval4h: 6,
	Interval1d: 1,
}

var intervalDuration = map[string]time.Duration{
	Interval1h: time.Hour,
	Interval4h: 4 * time.Hour,
	Interval1d: 24 * time.Hour,
}

func IsSupportedInterval(interval string) bool {
	_, ok := candlesPerDay[interval]
	return ok
}

// CandlesPerDay returns how many candles of the interval fit in one day, or 0 for unknown intervals.
func CandlesPerDay(interval string) int {
	return candlesPerDay[interval]
}

func IntervalDuration(interval string) time.Duration {
	return intervalDuration[interval]
}

// Candle is one OHLCV bucket. Fields are trusted as delivered by the exchange.
type Candle struct {
	OpenTimeMs int64   `json:"open_time_ms"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	Volume     float64 `json:"volume"`
}

func (c Candle) OpenTime() time.Time {
	return time.UnixMilli(c.OpenTimeMs).UTC()
}

// Bullish reports whether the candle is drawn in the "up" colour.
func (c Candle) Bullish() bool {
	return c.Close >= c.Open
}

// Chronological returns a copy of a newest-first feed in ascending time order.
func Chronological(newestFirst []Candle) []Candle {
	out := slices.Clone(newestFirst)
	slices.Reverse(out)
	return out
}

type ForecastPoint struct {
	TimestampMs int64   `json:"timestamp_ms"`
	Price       float64 `json:"price"`
}

func (p ForecastPoint) Time() time.Time {
	return time.UnixMilli(p.TimestampMs).UTC()
}

// RenderedChart is a finished price chart. PatternAnalysis is empty when no analysis was produced.
type RenderedChart struct {
	Image           []byte `json:"-"`
	IntervalUsed    string `json:"interval_used"`
	DaysUsed        int    `json:"days_used"`
	PatternAnalysis string `json:"pattern_analysis,omitempty"`
}

type ForecastRender struct {
	Image       []byte `json:"-"`
	PathPlotted bool   `json:"path_plotted"`
}

type PriceSnapshot struct {
	Symbol       string    `json:"symbol"`
	PriceUSD     float64   `json:"price_usd"`
	Change24hPct float64   `json:"change_24h_pct"`
	High24h      float64   `json:"high_24h"`
	Low24h       float64   `json:"low_24h"`
	Volume24h    float64   `json:"volume_24h"`
	Turnover24h  float64   `json:"turnover_24h"`
	Bid          float64   `json:"bid"`
	Ask          float64   `json:"ask"`
	FetchedAt    time.Time `json:"fetched_at"`
}
