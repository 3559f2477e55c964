package bot

import (
	"fmt"
	"strings"
	"time"

	"crypto-chart-bot/internal/caption"
	"crypto-chart-bot/internal/domain"
	"crypto-chart-bot/internal/service"
	"crypto-chart-bot/internal/symbols"

	"github.com/dustin/go-humanize"
	tele "gopkg.in/telebot.v3"
)

const (
	insightLimit    = 700
	insightEllipsis = "\n_(...analysis truncated)_"
	popularPerRow   = 3
	suggestionLimit = 9
)

const helpText = `🔍 *Crypto Chart Bot*

*Prices*
• /price BTC - current price and 24h stats
• Just type a coin: ` + "`btc`, `ethereum`, `doge`" + `

*Charts*
• /chart BTC - 1h candles over 7 days, with AI pattern insights
• /chart ETH 4h 14 - interval (1h, 4h, 1d) and days (1-365)

*AI*
• /analyze SOL 1d 30 - pattern analysis of the latest candles (default 4h, 7 days)
• /predict BTC 3d - forecast chart with a projected path (24h, 1d, 3d, 7d)

*Discovery*
• /search doge - find tradable symbols
• /popular - popular coins
• /list - how many USDT pairs are available

Data: Bybit spot market. AI output is not financial advice.`

func formatUSD(v float64) string {
	return "$" + humanize.FormatFloat("#,###.######", v)
}

func formatPrice(s *domain.PriceSnapshot) string {
	emoji := "📈"
	if s.Change24hPct < 0 {
		emoji = "📉"
	}
	return fmt.Sprintf(
		"💰 *%s/USDT*\n\n*Price:* %s\n%s *24h:* %+.2f%%\n*24h High:* %s\n*24h Low:* %s\n*24h Volume:* %s %s\n*Bid/Ask:* %s / %s",
		s.Symbol,
		formatUSD(s.PriceUSD),
		emoji, s.Change24hPct,
		formatUSD(s.High24h),
		formatUSD(s.Low24h),
		humanize.FormatFloat("#,###.", s.Volume24h), s.Symbol,
		formatUSD(s.Bid), formatUSD(s.Ask),
	)
}

// chartCaption builds the photo caption for /chart. snap may be nil when the ticker call failed.
func chartCaption(symbol string, snap *domain.PriceSnapshot, rc *domain.RenderedChart, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *%s/USDT Chart*", symbol)
	if snap != nil {
		emoji := "📈"
		if snap.Change24hPct < 0 {
			emoji = "📉"
		}
		fmt.Fprintf(&b, "\n\n💰 *Price:* %s\n%s *24h:* %+.2f%%", formatUSD(snap.PriceUSD), emoji, snap.Change24hPct)
	}
	fmt.Fprintf(&b, "\n\n*Period:* %d days (%s intervals)\n*Generated:* %s UTC", rc.DaysUsed, rc.IntervalUsed, now.UTC().Format("15:04:05"))
	if service.HasPatternInsight(rc.PatternAnalysis) {
		fmt.Fprintf(&b, "\n\n🧠 *AI Pattern Insights:*\n%s", caption.Truncate(rc.PatternAnalysis, insightLimit, insightEllipsis))
	}
	return caption.Truncate(b.String(), caption.PhotoLimit, caption.Ellipsis)
}

func fallbackNotice(requestedInterval string, requestedDays int, rc *domain.RenderedChart) string {
	if rc.IntervalUsed == requestedInterval && rc.DaysUsed == requestedDays {
		return ""
	}
	return fmt.Sprintf("ℹ️ No %s data for %d days, showing %s over %d days instead.",
		requestedInterval, requestedDays, rc.IntervalUsed, rc.DaysUsed)
}

func chartKeyboard(symbol, interval string, days int) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{
			{Text: "1H", Data: chartCallback(symbol, domain.Interval1h, 3)},
			{Text: "4H", Data: chartCallback(symbol, domain.Interval4h, 7)},
			{Text: "1D", Data: chartCallback(symbol, domain.Interval1d, 30)},
		},
		{
			{Text: "💰 Price", Data: priceCallback(symbol)},
			{Text: "🔮 Predict", Data: predictCallback(symbol, domain.DefaultForecastPeriod)},
			{Text: "🔄 Refresh", Data: chartCallback(symbol, interval, days)},
		},
	}}
}

func forecastKeyboard(symbol string) *tele.ReplyMarkup {
	row := make([]tele.InlineButton, 0, len(domain.ForecastPeriodKeys))
	for _, key := range domain.ForecastPeriodKeys {
		row = append(row, tele.InlineButton{Text: strings.ToUpper(key), Data: predictCallback(symbol, key)})
	}
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		row,
		{{Text: "📊 Chart", Data: chartCallback(symbol, defaultChartInterval, defaultChartDays)}},
	}}
}

func priceKeyboard(symbol string) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{{
		{Text: "📊 Chart", Data: chartCallback(symbol, defaultChartInterval, defaultChartDays)},
		{Text: "🔄 Refresh", Data: priceCallback(symbol)},
	}}}
}

// symbolKeyboard lays out price buttons three per row.
func symbolKeyboard(syms []string) *tele.ReplyMarkup {
	var rows [][]tele.InlineButton
	var row []tele.InlineButton
	for _, sym := range syms {
		row = append(row, tele.InlineButton{Text: "💰 " + sym, Data: priceCallback(sym)})
		if len(row) == popularPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

func popularKeyboard(coins []symbols.Coin) *tele.ReplyMarkup {
	syms := make([]string, 0, len(coins))
	for _, c := range coins {
		syms = append(syms, c.Symbol)
	}
	return symbolKeyboard(syms)
}

func suggestionText(query string, matches []string) string {
	if len(matches) == 0 {
		return fmt.Sprintf("❌ No USDT pair found for `%s`. Try /search or /popular.", query)
	}
	return fmt.Sprintf("❓ `%s` is not a listed USDT pair. Did you mean one of these?", query)
}
