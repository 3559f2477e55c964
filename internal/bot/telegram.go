package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"crypto-chart-bot/internal/caption"
	"crypto-chart-bot/internal/domain"
	"crypto-chart-bot/internal/service"
	"crypto-chart-bot/internal/symbols"

	tele "gopkg.in/telebot.v3"
)

type ChartCreator interface {
	CreatePriceChart(ctx context.Context, symbol, interval string, days int) (*domain.RenderedChart, error)
}

type Forecaster interface {
	Forecast(ctx context.Context, symbol, period string) (*service.ForecastResult, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, symbol, interval string, days int) (*service.AnalysisResult, error)
}

type PriceQuerier interface {
	Snapshot(ctx context.Context, symbol string) (*domain.PriceSnapshot, error)
}

type SymbolDirectory interface {
	Loaded() bool
	Contains(ctx context.Context, symbol string) bool
	Search(ctx context.Context, query string, limit int) ([]string, error)
	Len(ctx context.Context) int
}

type Services struct {
	Charts    ChartCreator
	Forecasts Forecaster
	Analysis  Analyzer
	Prices    PriceQuerier
	Symbols   SymbolDirectory
}

// StartTelegramBot registers the command handlers and starts long polling in the background.
// It returns nil without error when token is empty.
func StartTelegramBot(ctx context.Context, token string, svc Services) (*tele.Bot, error) {
	if strings.TrimSpace(token) == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil, nil
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Printf("telegram handler error: %v", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create Telegram bot: %w", err)
	}

	h := &handlers{ctx: ctx, svc: svc, sender: b, now: time.Now}
	h.register(b)

	log.Println("Telegram bot started")
	go b.Start()
	go func() {
		<-ctx.Done()
		b.Stop()
	}()
	return b, nil
}

type handlers struct {
	ctx    context.Context
	svc    Services
	sender messageSender
	now    func() time.Time
}

func (h *handlers) register(b *tele.Bot) {
	b.Handle("/start", h.help)
	b.Handle("/help", h.help)
	b.Handle("/price", h.price)
	b.Handle("/chart", h.chart)
	b.Handle("/predict", h.predict)
	b.Handle("/pedict", h.predict)
	b.Handle("/analyze", h.analyze)
	b.Handle("/search", h.search)
	b.Handle("/popular", h.popular)
	b.Handle("/list", h.list)
	b.Handle(tele.OnCallback, h.callback)
	b.Handle(tele.OnText, h.text)
}

func (h *handlers) help(c tele.Context) error {
	return c.Send(helpText, popularKeyboard(symbols.Popular()), tele.ModeMarkdown)
}

func (h *handlers) price(c tele.Context) error {
	args := c.Args()
	if len(args) == 0 {
		return c.Send("Usage: /price BTC")
	}
	return h.sendPrice(c, symbols.Normalize(args[0]))
}

func (h *handlers) sendPrice(c tele.Context, symbol string) error {
	if ok, err := h.knownSymbol(c, symbol); !ok {
		return err
	}
	snap, err := h.svc.Prices.Snapshot(h.ctx, symbol)
	if errors.Is(err, domain.ErrUnknownSymbol) {
		return h.suggest(c, symbol)
	}
	if err != nil {
		log.Printf("price lookup failed for %s: %v", symbol, err)
		return c.Send(fmt.Sprintf("❌ Error fetching price for %s. Please try again later.", symbol))
	}
	return sendMarkdown(c, formatPrice(snap), priceKeyboard(symbol))
}

func (h *handlers) chart(c tele.Context) error {
	args, err := parseChartArgs(c.Args())
	if err != nil {
		return c.Send("Usage: /chart BTC [1h|4h|1d] [days 1-365]\nExample: /chart ETH 4h 14")
	}
	return h.sendChart(c, args.Symbol, args.Interval, args.Days)
}

func (h *handlers) sendChart(c tele.Context, symbol, interval string, days int) error {
	if ok, err := h.knownSymbol(c, symbol); !ok {
		return err
	}
	p := startProgress(h.sender, c.Recipient(), fmt.Sprintf("📊 Generating %s chart...", symbol))

	rc, err := h.svc.Charts.CreatePriceChart(h.ctx, symbol, interval, days)
	if err != nil {
		log.Printf("chart failed for %s %s/%dd: %v", symbol, interval, days, err)
		return p.Fail(chartErrorText(symbol, err))
	}

	var snap *domain.PriceSnapshot
	if h.svc.Prices != nil {
		if snap, err = h.svc.Prices.Snapshot(h.ctx, symbol); err != nil {
			log.Printf("chart caption price lookup failed for %s: %v", symbol, err)
			snap = nil
		}
	}

	text := chartCaption(symbol, snap, rc, h.now())
	if notice := fallbackNotice(interval, days, rc); notice != "" {
		text = caption.Truncate(notice+"\n"+text, caption.PhotoLimit, caption.Ellipsis)
	}
	if err := sendPhoto(c, rc.Image, text, chartKeyboard(symbol, rc.IntervalUsed, rc.DaysUsed)); err != nil {
		return p.Fail(chartErrorText(symbol, err))
	}
	p.Done()
	return nil
}

func (h *handlers) predict(c tele.Context) error {
	symbol, period, err := parsePredictArgs(c.Args())
	if err != nil {
		return c.Send("🔮 *AI Price Forecast*\n`/predict <symbol> [period]`\nPeriods: `24h` (default), `1d`, `3d`, `7d`\nExample: `/predict BTC 3d`", tele.ModeMarkdown)
	}
	return h.sendForecast(c, symbol, period)
}

func (h *handlers) sendForecast(c tele.Context, symbol, period string) error {
	if ok, err := h.knownSymbol(c, symbol); !ok {
		return err
	}
	_ = c.Notify(tele.UploadingPhoto)
	p := startProgress(h.sender, c.Recipient(), fmt.Sprintf("🔮 Generating AI forecast for %s (%s)...", symbol, period))

	res, err := h.svc.Forecasts.Forecast(h.ctx, symbol, period)
	if err != nil {
		log.Printf("forecast failed for %s %s: %v", symbol, period, err)
		return p.Fail(forecastErrorText(symbol, err))
	}

	if res.Image == nil {
		return p.Fail(res.Caption)
	}
	if err := sendPhoto(c, res.Image, res.Caption, forecastKeyboard(symbol)); err != nil {
		return p.Fail(fmt.Sprintf("[%s] ❌ Could not deliver the forecast for %s.", res.RequestID, symbol))
	}
	p.Done()
	return nil
}

func (h *handlers) analyze(c tele.Context) error {
	args, err := parseAnalyzeArgs(c.Args())
	if err != nil {
		return c.Send("🧠 *AI Chart Pattern Analysis*\n`/analyze <symbol> [interval] [days]`\nIntervals: `1h`, `4h` (default), `1d`. Days: 1-90 (default 7).\nExample: `/analyze SOL 1d 30`", tele.ModeMarkdown)
	}
	if ok, err := h.knownSymbol(c, args.Symbol); !ok {
		return err
	}

	_ = c.Notify(tele.Typing)
	p := startProgress(h.sender, c.Recipient(),
		fmt.Sprintf("🧠 Analyzing chart patterns for %s (%s, %dd context)...", args.Symbol, args.Interval, args.Days))

	res, err := h.svc.Analysis.Analyze(h.ctx, args.Symbol, args.Interval, args.Days)
	if err != nil {
		log.Printf("analyze failed for %s: %v", args.Symbol, err)
		return p.Fail(analyzeErrorText(args.Symbol, args.Interval, err))
	}
	if err := sendMarkdown(c, res.Text, nil); err != nil {
		return p.Fail(fmt.Sprintf("[%s] ❌ Sorry, there was an issue displaying the analysis for %s.", res.RequestID, args.Symbol))
	}
	p.Done()
	return nil
}

func (h *handlers) search(c tele.Context) error {
	query := strings.TrimSpace(c.Message().Payload)
	if query == "" {
		return c.Send("Usage: /search doge")
	}
	if h.svc.Symbols == nil {
		return c.Send("Symbol search is not available right now.")
	}
	matches, err := h.svc.Symbols.Search(h.ctx, query, suggestionLimit)
	if err != nil {
		log.Printf("symbol search failed for %q: %v", query, err)
		return c.Send("❌ Symbol search failed. Please try again later.")
	}
	if len(matches) == 0 {
		return c.Send(fmt.Sprintf("No USDT pairs match %q.", query))
	}
	return c.Send(fmt.Sprintf("🔍 Matches for %q:", query), symbolKeyboard(matches))
}

func (h *handlers) popular(c tele.Context) error {
	return c.Send("📈 *Popular Cryptocurrencies*\n\nTap a coin for its price, or type any coin name to search:",
		popularKeyboard(symbols.Popular()), tele.ModeMarkdown)
}

func (h *handlers) list(c tele.Context) error {
	count := 0
	if h.svc.Symbols != nil {
		count = h.svc.Symbols.Len(h.ctx)
	}
	coins := symbols.Popular()
	names := make([]string, 0, len(coins))
	for _, coin := range coins {
		names = append(names, coin.Symbol)
	}
	msg := fmt.Sprintf("📋 Popular: %s\n\nUse /search <name> to find any other pair.", strings.Join(names, ", "))
	if count > 0 {
		msg = fmt.Sprintf("📋 %d USDT spot pairs are available on Bybit.\n\n", count) + msg
	}
	return c.Send(msg)
}

func (h *handlers) callback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	_ = c.Respond()

	data, err := parseCallback(cb.Data)
	if err != nil {
		log.Printf("ignoring callback: %v", err)
		return nil
	}
	switch data.Kind {
	case callbackChart:
		return h.sendChart(c, data.Symbol, data.Interval, data.Days)
	case callbackPredict:
		return h.sendForecast(c, data.Symbol, data.Period)
	default:
		return h.sendPrice(c, data.Symbol)
	}
}

// text treats a bare message as a coin lookup.
func (h *handlers) text(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" || strings.HasPrefix(text, "/") || strings.ContainsAny(text, " \n") {
		return nil
	}
	return h.sendPrice(c, symbols.Normalize(text))
}

// knownSymbol answers with suggestions when the symbol cache is loaded and lacks symbol.
func (h *handlers) knownSymbol(c tele.Context, symbol string) (bool, error) {
	if h.svc.Symbols == nil || !h.svc.Symbols.Loaded() || h.svc.Symbols.Contains(h.ctx, symbol) {
		return true, nil
	}
	return false, h.suggest(c, symbol)
}

func (h *handlers) suggest(c tele.Context, symbol string) error {
	var matches []string
	if h.svc.Symbols != nil {
		var err error
		if matches, err = h.svc.Symbols.Search(h.ctx, symbol, suggestionLimit); err != nil {
			log.Printf("suggestions failed for %s: %v", symbol, err)
		}
	}
	if len(matches) == 0 {
		return sendMarkdown(c, suggestionText(symbol, nil), nil)
	}
	return sendMarkdown(c, suggestionText(symbol, matches), symbolKeyboard(matches))
}

// sendMarkdown retries as plain text when Telegram rejects the markup, which happens with AI text.
func sendMarkdown(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	opts := []interface{}{tele.ModeMarkdown}
	if markup != nil {
		opts = append(opts, markup)
	}
	if err := c.Send(text, opts...); err != nil {
		log.Printf("markdown send failed, retrying as plain text: %v", err)
		if markup != nil {
			return c.Send(text, markup)
		}
		return c.Send(text)
	}
	return nil
}

func sendPhoto(c tele.Context, img []byte, text string, markup *tele.ReplyMarkup) error {
	photo := func() *tele.Photo {
		return &tele.Photo{File: tele.FromReader(bytes.NewReader(img)), Caption: text}
	}
	if err := c.Send(photo(), markup, tele.ModeMarkdown); err != nil {
		log.Printf("markdown photo send failed, retrying as plain text: %v", err)
		return c.Send(photo(), markup)
	}
	return nil
}

func chartErrorText(symbol string, err error) string {
	switch {
	case errors.Is(err, domain.ErrDataUnavailable):
		return fmt.Sprintf("❌ *No chart data for %s*\n\nBybit returned no candles for any period. The pair may be new or delisted.", symbol)
	case errors.Is(err, domain.ErrInvalidArgument):
		return "Usage: /chart BTC [1h|4h|1d] [days 1-365]"
	default:
		return fmt.Sprintf("❌ *Failed to generate chart for %s*\n\nThis could be due to:\n• Insufficient data for the selected period\n• Network issues or API rate limits\n\nTry a different period or symbol.", symbol)
	}
}

func forecastErrorText(symbol string, err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		return fmt.Sprintf("❌ Insufficient historical data for %s.", symbol)
	case errors.Is(err, domain.ErrInvalidArgument):
		return "❌ Invalid period. Use: " + strings.Join(domain.ForecastPeriodKeys, ", ")
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return "❌ The exchange did not answer in time. Please try again."
	default:
		return fmt.Sprintf("❌ Could not build a forecast for %s.", symbol)
	}
}

func analyzeErrorText(symbol, interval string, err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		return fmt.Sprintf("❌ Insufficient kline data for %s at %s interval to perform pattern analysis.", symbol, interval)
	case errors.Is(err, domain.ErrInvalidArgument):
		return "❌ Days (for context) must be between 1 and 90, and the interval one of 1h, 4h, 1d."
	default:
		return service.AIFailureMessage(err)
	}
}
