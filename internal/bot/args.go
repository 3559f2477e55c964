package bot

import (
	"fmt"
	"strconv"
	"strings"

	"crypto-chart-bot/internal/domain"
	"crypto-chart-bot/internal/service"
	"crypto-chart-bot/internal/symbols"
)

const (
	defaultChartInterval = domain.Interval1h
	defaultChartDays     = 7
	maxChartDays         = 365
)

type chartArgs struct {
	Symbol   string
	Interval string
	Days     int
}

// parseIntervalDays reads an optional interval and day count in either order.
func parseIntervalDays(args []string, interval string, days, maxDays int) (string, int, error) {
	seenInterval, seenDays := false, false
	for _, raw := range args {
		arg := strings.ToLower(strings.TrimSpace(raw))
		if arg == "" {
			continue
		}
		if domain.IsSupportedInterval(arg) && !seenInterval {
			interval, seenInterval = arg, true
			continue
		}
		n, err := strconv.Atoi(arg)
		if err != nil || seenDays {
			return "", 0, fmt.Errorf("unexpected argument %q", raw)
		}
		if n < 1 || n > maxDays {
			return "", 0, fmt.Errorf("days must be between 1 and %d", maxDays)
		}
		days, seenDays = n, true
	}
	return interval, days, nil
}

func parseChartArgs(args []string) (chartArgs, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return chartArgs{}, fmt.Errorf("symbol is required")
	}
	interval, days, err := parseIntervalDays(args[1:], defaultChartInterval, defaultChartDays, maxChartDays)
	if err != nil {
		return chartArgs{}, err
	}
	return chartArgs{Symbol: symbols.Normalize(args[0]), Interval: interval, Days: days}, nil
}

func parseAnalyzeArgs(args []string) (chartArgs, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return chartArgs{}, fmt.Errorf("symbol is required")
	}
	interval, days, err := parseIntervalDays(args[1:], service.DefaultAnalyzeInterval, service.DefaultAnalyzeDays, service.MaxAnalyzeDays)
	if err != nil {
		return chartArgs{}, err
	}
	return chartArgs{Symbol: symbols.Normalize(args[0]), Interval: interval, Days: days}, nil
}

func parsePredictArgs(args []string) (string, string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", "", fmt.Errorf("symbol is required")
	}
	period := domain.DefaultForecastPeriod
	if len(args) > 1 {
		period = strings.ToLower(strings.TrimSpace(args[1]))
	}
	if _, ok := domain.LookupForecastPeriod(period); !ok {
		return "", "", fmt.Errorf("invalid period %q", period)
	}
	return symbols.Normalize(args[0]), period, nil
}

type callbackKind string

const (
	callbackChart   callbackKind = "chart"
	callbackPredict callbackKind = "predict"
	callbackPrice   callbackKind = "price"
)

type callbackData struct {
	Kind     callbackKind
	Symbol   string
	Interval string
	Days     int
	Period   string
}

// parseCallback decodes chart_{S}_{interval}_{days}, predict_{S}_{period} and price_{S}.
func parseCallback(data string) (callbackData, error) {
	data = strings.TrimPrefix(strings.TrimSpace(data), "\f")
	parts := strings.Split(data, "_")
	if len(parts) < 2 || parts[1] == "" {
		return callbackData{}, fmt.Errorf("malformed callback %q", data)
	}
	cb := callbackData{Kind: callbackKind(parts[0]), Symbol: strings.ToUpper(parts[1])}

	switch cb.Kind {
	case callbackPrice:
		if len(parts) != 2 {
			return callbackData{}, fmt.Errorf("malformed callback %q", data)
		}
	case callbackChart:
		if len(parts) != 4 || !domain.IsSupportedInterval(parts[2]) {
			return callbackData{}, fmt.Errorf("malformed callback %q", data)
		}
		days, err := strconv.Atoi(parts[3])
		if err != nil || days < 1 || days > maxChartDays {
			return callbackData{}, fmt.Errorf("malformed callback %q", data)
		}
		cb.Interval, cb.Days = parts[2], days
	case callbackPredict:
		if len(parts) != 3 {
			return callbackData{}, fmt.Errorf("malformed callback %q", data)
		}
		if _, ok := domain.LookupForecastPeriod(parts[2]); !ok {
			return callbackData{}, fmt.Errorf("malformed callback %q", data)
		}
		cb.Period = parts[2]
	default:
		return callbackData{}, fmt.Errorf("unknown callback %q", data)
	}
	return cb, nil
}

func chartCallback(symbol, interval string, days int) string {
	return fmt.Sprintf("%s_%s_%s_%d", callbackChart, symbol, interval, days)
}

func predictCallback(symbol, period string) string {
	return fmt.Sprintf("%s_%s_%s", callbackPredict, symbol, period)
}

func priceCallback(symbol string) string {
	return fmt.Sprintf("%s_%s", callbackPrice, symbol)
}
