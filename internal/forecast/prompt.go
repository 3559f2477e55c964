package forecast

import (
	"fmt"
	"strings"

	"crypto-chart-bot/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	PatternPromptCandles = 100
	PatternPromptChars   = 3500

	ForecastPromptCandles = 150
	ForecastPromptChars   = 3000

	AnalyzeFetchCandles  = 50
	AnalyzePromptCandles = 20
	AnalyzeMinCandles    = 5

	truncationSuffix = "\n... (data truncated to fit prompt)"
	candleHeader     = "Timestamp (ms), Open, High, Low, Close, Volume\n"

	Disclaimer = "Disclaimer: This is an AI-generated analysis and not financial advice."
)

// SerializeCandles writes the most recent maxCandles of an ascending dataset, oldest first,
// and cuts the text at maxChars with an explicit suffix.
func SerializeCandles(candles []domain.Candle, maxCandles, maxChars int) string {
	if len(candles) > maxCandles {
		candles = candles[len(candles)-maxCandles:]
	}

	var b strings.Builder
	b.WriteString(candleHeader)
	for _, c := range candles {
		fmt.Fprintf(&b, "%d, %s, %s, %s, %s, %s\n",
			c.OpenTimeMs, num(c.Open), num(c.High), num(c.Low), num(c.Close), num(c.Volume))
	}

	out := b.String()
	if len(out) > maxChars {
		out = out[:maxChars] + truncationSuffix
	}
	return out
}

func num(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// ForecastIntro is the heading the model is told to open its analysis with.
func ForecastIntro(symbol string, horizon domain.Horizon) string {
	return fmt.Sprintf("🔮 AI Price Forecast for %s (%s):", symbol, horizon)
}

func PatternPrompt(symbol, interval string, days int, candles []domain.Candle) string {
	data := SerializeCandles(candles, PatternPromptCandles, PatternPromptChars)
	return fmt.Sprintf(`You are a technical analyst who specializes in cryptocurrency chart patterns.
Look at the %s/USDT candles below. They are %s candles covering roughly the last %d days, oldest first.

%s
Name any chart patterns that are forming or complete (head and shoulders, triangles, flags, pennants,
wedges, double or triple tops and bottoms, channels, cup and handle). For each one give its name,
the price levels or trendlines that define it, and what it usually implies.
If nothing stands out, answer "No clear patterns identified in the recent data."
Keep it to two to four short paragraphs or bullet points. Do not give financial advice.
Write timestamps as YYYY-MM-DD HH:MM:SS UTC.
`, symbol, interval, days, data)
}

func ForecastPrompt(symbol, interval string, days int, horizon domain.Horizon, candles []domain.Candle) string {
	dateContext := "Context: keep every date you mention consistent with the current year."
	year := "the current year"
	if len(candles) > 0 {
		latest := candles[len(candles)-1].OpenTime()
		year = fmt.Sprintf("%d", latest.Year())
		dateContext = fmt.Sprintf(
			"Context: the most recent candle below is from %s UTC. Keep every date you mention consistent with %s.",
			latest.Format("2006-01-02"), year,
		)
	}
	data := SerializeCandles(candles, ForecastPromptCandles, ForecastPromptChars)
	points := horizon.PromptPoints()

	return fmt.Sprintf(`You are a cryptocurrency technical analyst.
%s

The %s/USDT candles below are %s candles covering roughly the last %d days, oldest first.
%s
Part 1. Write a technical analysis and price forecast for the %s covering the expected trend,
key support and resistance, the patterns or indicators behind your view, and a short outlook.
Begin it with "%s" and finish it with the exact line %s.
Keep the whole analysis in that one block.

Part 2. Give a projected price path for the %s with about %d points, strictly in this form:
%s
[timestamp_in_milliseconds, projected_price]
%s
Timestamps are UTC milliseconds after the last candle. Prices are plain numbers.

Example with 3 points:
%s
[1678886400000, 23000.50]
[1678893600000, 23150.00]
[1678900800000, 23100.75]
%s

Focus on technicals and avoid financial advice. Write timestamps as YYYY-MM-DD HH:MM:SS UTC in %s.
`,
		dateContext,
		symbol, interval, days,
		data,
		horizon,
		ForecastIntro(symbol, horizon), TextualEndMarker,
		horizon, points,
		PathStartMarker, PathEndMarker,
		PathStartMarker, PathEndMarker,
		year,
	)
}

// AnalyzePrompt summarises the most recent candles of an ascending dataset as numbered OHLC lines.
func AnalyzePrompt(symbol, interval string, days int, candles []domain.Candle) string {
	if len(candles) > AnalyzePromptCandles {
		candles = candles[len(candles)-AnalyzePromptCandles:]
	}
	lines := make([]string, 0, len(candles))
	for i, c := range candles {
		lines = append(lines, fmt.Sprintf("Candle %d: O:%s H:%s L:%s C:%s", i+1, num(c.Open), num(c.High), num(c.Low), num(c.Close)))
	}

	return fmt.Sprintf(`Analyze this %s %s chart from its %d most recent candles (context: about the last %d days).

%s

Identify:
1. Recognizable patterns (triangles, flags, head and shoulders, wedges, channels, double or triple tops and bottoms).
2. Trend direction and strength.
3. Breakout levels for support and resistance.
4. Trade ideas (entry, stop-loss, take-profit) that follow only from the patterns found.

Be specific about price levels.
Start your reply with: "%s Always do your own research (DYOR) before making any trading decisions."
`, symbol, interval, len(candles), days, strings.Join(lines, "\n"), Disclaimer)
}

// StripIntro removes the heading the model was asked to start with. It is re-added by the caller
// together with the request id.
func StripIntro(text, symbol string, horizon domain.Horizon) string {
	return strings.TrimSpace(strings.TrimPrefix(text, ForecastIntro(symbol, horizon)))
}
