package chart

import (
	"context"
	"log"

	"crypto-chart-bot/internal/domain"
)

// KlineFetcher returns candles newest-first. An error is treated the same as an empty result.
type KlineFetcher interface {
	FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error)
}

// AttemptObserver is told about every fallback candidate that was tried.
type AttemptObserver interface {
	ObserveFallbackAttempt(interval string, found bool)
}

type Candidate struct {
	Interval string
	Days     int
}

var defaultCandidates = []Candidate{
	{Interval: domain.Interval1h, Days: 3},
	{Interval: domain.Interval4h, Days: 7},
	{Interval: domain.Interval1d, Days: 30},
}

// FallbackCandidates lists the (interval, days) pairs to try in order. The requested pair leads when
// its interval is supported, followed by the defaults whose interval is not already listed.
func FallbackCandidates(interval string, days int) []Candidate {
	out := make([]Candidate, 0, len(defaultCandidates)+1)
	seen := make(map[string]struct{}, len(defaultCandidates)+1)
	if domain.IsSupportedInterval(interval) {
		out = append(out, Candidate{Interval: interval, Days: days})
		seen[interval] = struct{}{}
	}
	for _, c := range defaultCandidates {
		if _, ok := seen[c.Interval]; ok {
			continue
		}
		seen[c.Interval] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Resolution is the dataset picked by the resolver, in ascending time order.
type Resolution struct {
	Candles  []domain.Candle
	Interval string
	Days     int
}

// Fallback reports whether the resolver had to move away from the requested pair.
func (r *Resolution) Fallback(interval string, days int) bool {
	return r.Interval != interval || r.Days != days
}

type Resolver struct {
	fetcher  KlineFetcher
	observer AttemptObserver
}

func NewResolver(fetcher KlineFetcher, observer AttemptObserver) *Resolver {
	return &Resolver{fetcher: fetcher, observer: observer}
}

// Resolve tries the candidates one at a time and returns the first non-empty dataset.
func (r *Resolver) Resolve(ctx context.Context, symbol, interval string, days int) (*Resolution, error) {
	for _, c := range FallbackCandidates(interval, days) {
		limit := c.Days * domain.CandlesPerDay(c.Interval)
		candles, err := r.fetcher.FetchKlines(ctx, symbol, c.Interval, limit)
		if err != nil {
			log.Printf("kline fetch failed for %s %s/%dd: %v", symbol, c.Interval, c.Days, err)
			candles = nil
		}
		if r.observer != nil {
			r.observer.ObserveFallbackAttempt(c.Interval, len(candles) > 0)
		}
		if len(candles) == 0 {
			continue
		}
		return &Resolution{
			Candles:  domain.Chronological(candles),
			Interval: c.Interval,
			Days:     c.Days,
		}, nil
	}
	return nil, domain.ErrDataUnavailable
}
