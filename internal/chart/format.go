package chart

import (
	"fmt"
	"math"
	"time"

	"crypto-chart-bot/internal/domain"

	"github.com/dustin/go-humanize"
)

// FormatPriceTick labels a price axis value. Precision depends on the visible price span.
func FormatPriceTick(v, span float64) string {
	switch {
	case span < 1:
		return fmt.Sprintf("$%.6f", v)
	case span < 100:
		return fmt.Sprintf("$%.4f", v)
	default:
		return "$" + humanize.FormatFloat("#,###.##", v)
	}
}

func FormatVolumeTick(v float64) string {
	if v < 1_000_000 {
		return fmt.Sprintf("%.0fK", v/1000)
	}
	return fmt.Sprintf("%.1fM", v/1_000_000)
}

type TickUnit int

const (
	TickHour TickUnit = iota
	TickDay
	TickWeek
	TickMonth
)

// DateTickPolicy describes where time axis labels go and how they read.
type DateTickPolicy struct {
	Unit   TickUnit
	Step   int
	Layout string
}

const maxDateTicks = 16

// DateTickPolicyFor picks tick granularity for a chart window.
func DateTickPolicyFor(interval string, days int) DateTickPolicy {
	switch interval {
	case domain.Interval1h:
		if days <= 3 {
			return DateTickPolicy{Unit: TickHour, Step: hourTickStep(days), Layout: "01/02 15:04"}
		}
		return DateTickPolicy{Unit: TickDay, Step: max(1, days/7), Layout: "01/02"}
	case domain.Interval1d:
		switch {
		case days <= 14:
			return DateTickPolicy{Unit: TickDay, Step: 1, Layout: "2006-01-02"}
		case days <= 90:
			return DateTickPolicy{Unit: TickWeek, Step: 1, Layout: "2006-01-02"}
		default:
			return DateTickPolicy{Unit: TickMonth, Step: 1, Layout: "2006-01-02"}
		}
	default:
		return DateTickPolicy{Unit: TickDay, Step: max(1, days/7), Layout: "01/02"}
	}
}

// hourTickStep spreads roughly six labels over a short hourly window.
func hourTickStep(days int) int {
	perTick := max(1, days*24/6)
	ticksPerDay := 24 / perTick
	if ticksPerDay < 1 {
		ticksPerDay = 1
	}
	return max(1, 24/ticksPerDay)
}

// Ticks returns label positions inside [from, to], aligned to calendar boundaries in UTC.
func (p DateTickPolicy) Ticks(from, to time.Time) []time.Time {
	from, to = from.UTC(), to.UTC()
	if to.Before(from) {
		return nil
	}
	step := max(1, p.Step)

	var out []time.Time
	switch p.Unit {
	case TickHour:
		t := from.Truncate(time.Hour)
		for ; !t.After(to); t = t.Add(time.Hour) {
			if t.Before(from) || t.Hour()%step != 0 {
				continue
			}
			out = append(out, t)
		}
	case TickDay:
		t := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		for ; !t.After(to); t = t.AddDate(0, 0, 1) {
			if t.Before(from) || (t.Day()-1)%step != 0 {
				continue
			}
			out = append(out, t)
		}
	case TickWeek:
		t := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		for t.Weekday() != time.Monday || t.Before(from) {
			t = t.AddDate(0, 0, 1)
		}
		for ; !t.After(to); t = t.AddDate(0, 0, 7*step) {
			out = append(out, t)
		}
	case TickMonth:
		t := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
		if t.Before(from) {
			t = t.AddDate(0, 1, 0)
		}
		for ; !t.After(to); t = t.AddDate(0, step, 0) {
			out = append(out, t)
		}
	}
	return thinTicks(out, maxDateTicks)
}

func thinTicks(ticks []time.Time, limit int) []time.Time {
	if len(ticks) <= limit {
		return ticks
	}
	every := int(math.Ceil(float64(len(ticks)) / float64(limit)))
	out := make([]time.Time, 0, limit)
	for i := 0; i < len(ticks); i += every {
		out = append(out, ticks[i])
	}
	return out
}

// percentChange returns 0 when the base is 0.
func percentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}

func candleFooter(candles []domain.Candle) string {
	first := candles[0].Close
	last := candles[len(candles)-1].Close
	lo, hi := priceBounds(candles)
	return fmt.Sprintf(
		"Current: $%.6f | Change: %+.2f%% | High: $%.6f | Low: $%.6f",
		last, percentChange(first, last), hi, lo,
	)
}

func forecastFooter(candles []domain.Candle, days int) string {
	last := candles[len(candles)-1].Close
	change := 0.0
	if len(candles) >= 2 {
		change = percentChange(candles[0].Close, last)
	}
	return fmt.Sprintf("Last Hist: $%.6f | Hist Change: %+.2f%% (%dd)", last, change, days)
}
