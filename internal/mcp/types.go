package mcp

import (
	"fmt"
	"slices"
	"strings"

	"crypto-chart-bot/internal/domain"
	"crypto-chart-bot/internal/symbols"
)

const (
	defaultChartDays = 7
	maxChartDays     = 365
	maxSearchLimit   = 50
)

type chartRenderInput struct {
	Symbol   string `json:"symbol" jsonschema:"base coin (e.g. BTC, ETH, doge)"`
	Interval string `json:"interval,omitempty" jsonschema:"candle interval: 1h, 4h, 1d (default 1h)"`
	Days     int    `json:"days,omitempty" jsonschema:"days of history, 1-365 (default 7)"`
}

type chartRenderOutput struct {
	Symbol          string `json:"symbol"`
	IntervalUsed    string `json:"interval_used"`
	DaysUsed        int    `json:"days_used"`
	Fallback        bool   `json:"fallback"`
	PatternAnalysis string `json:"pattern_analysis,omitempty"`
}

type forecastRenderInput struct {
	Symbol string `json:"symbol" jsonschema:"base coin (e.g. BTC, ETH)"`
	Period string `json:"period,omitempty" jsonschema:"forecast period: 24h, 1d, 3d, 7d (default 24h)"`
}

type forecastRenderOutput struct {
	RequestID   string `json:"request_id"`
	Symbol      string `json:"symbol"`
	Period      string `json:"period"`
	Horizon     string `json:"horizon"`
	Caption     string `json:"caption"`
	PathPlotted bool   `json:"path_plotted"`
	HasImage    bool   `json:"has_image"`
}

type symbolsSearchInput struct {
	Query string `json:"query" jsonschema:"ticker or coin name to look for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum matches, max 50 (default 5)"`
}

type symbolsSearchOutput struct {
	Query   string   `json:"query"`
	Symbols []string `json:"symbols"`
}

type priceGetInput struct {
	Symbol string `json:"symbol" jsonschema:"base coin (e.g. BTC, ETH)"`
}

type priceGetOutput struct {
	Price *domain.PriceSnapshot `json:"price"`
}

type horizonInfo struct {
	Period          string `json:"period"`
	Horizon         string `json:"horizon"`
	Points          int    `json:"points"`
	StepHours       int    `json:"step_hours"`
	HistoryInterval string `json:"history_interval"`
	HistoryDays     int    `json:"history_days"`
}

func normalizeSymbol(raw string) (string, error) {
	symbol := symbols.Normalize(raw)
	if symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}
	if strings.ContainsAny(symbol, " /") {
		return "", fmt.Errorf("invalid symbol: %s", raw)
	}
	return symbol, nil
}

func normalizeInterval(interval string) (string, error) {
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return domain.Interval1h, nil
	}
	if !slices.Contains(domain.SupportedIntervals, interval) {
		return "", fmt.Errorf("unsupported interval: %s", interval)
	}
	return interval, nil
}

func normalizeDays(days int) (int, error) {
	if days == 0 {
		return defaultChartDays, nil
	}
	if days < 1 || days > maxChartDays {
		return 0, fmt.Errorf("days must be between 1 and %d", maxChartDays)
	}
	return days, nil
}

func normalizePeriod(period string) (string, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		return domain.DefaultForecastPeriod, nil
	}
	if _, ok := domain.LookupForecastPeriod(period); !ok {
		return "", fmt.Errorf("unsupported period: %s (use %s)", period, strings.Join(domain.ForecastPeriodKeys, ", "))
	}
	return period, nil
}

func normalizeSearchLimit(limit int) int {
	if limit <= 0 {
		return symbols.DefaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}

func forecastHorizons() []horizonInfo {
	out := make([]horizonInfo, 0, len(domain.ForecastPeriodKeys))
	for _, key := range domain.ForecastPeriodKeys {
		p, _ := domain.LookupForecastPeriod(key)
		info := horizonInfo{
			Period:          p.Key,
			Horizon:         string(p.Horizon),
			Points:          p.Horizon.PromptPoints(),
			HistoryInterval: p.HistoryInterval,
			HistoryDays:     p.HistoryDays,
		}
		if plan, ok := domain.HorizonPlanFor(p.Horizon); ok {
			info.StepHours = int(plan.Step.Hours())
		}
		out = append(out, info)
	}
	return out
}
