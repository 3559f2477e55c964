// Package exchange reads public spot market data from the Bybit v5 REST API.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crypto-chart-bot/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL = "https://api.bybit.com"
	DefaultTimeout = 10 * time.Second

	quoteCoin      = "USDT"
	maxKlineLimit  = 1000
	instrumentPage = 500

	// retCodeBadSymbol is Bybit's "Not supported symbols" code.
	retCodeBadSymbol = 10001
)

var bybitIntervals = map[string]string{
	domain.Interval1h: "60",
	domain.Interval4h: "240",
	domain.Interval1d: "D",
}

type response[T any] struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  T      `json:"result"`
}

type klineResult struct {
	Symbol string     `json:"symbol"`
	List   [][]string `json:"list"`
}

type tickerResult struct {
	List []struct {
		Symbol       string `json:"symbol"`
		LastPrice    string `json:"lastPrice"`
		Price24hPcnt string `json:"price24hPcnt"`
		HighPrice24h string `json:"highPrice24h"`
		LowPrice24h  string `json:"lowPrice24h"`
		Volume24h    string `json:"volume24h"`
		Turnover24h  string `json:"turnover24h"`
		Bid1Price    string `json:"bid1Price"`
		Ask1Price    string `json:"ask1Price"`
	} `json:"list"`
}

type instrumentsResult struct {
	List []struct {
		Symbol    string `json:"symbol"`
		BaseCoin  string `json:"baseCoin"`
		QuoteCoin string `json:"quoteCoin"`
		Status    string `json:"status"`
	} `json:"list"`
	NextPageCursor string `json:"nextPageCursor"`
}

// Client is a Bybit spot market data client. It is safe for concurrent use.
type Client struct {
	tracer  trace.Tracer
	baseURL string
	http    *http.Client
	now     func() time.Time
}

func NewClient(tracer trace.Tracer, baseURL string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		tracer:  tracer,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// FetchKlines returns up to limit candles for SYMBOL/USDT, newest first, as Bybit delivers them.
func (c *Client) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	ctx, span := c.tracer.Start(ctx, "exchange.fetch-klines")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("interval", interval),
		attribute.Int("limit", limit),
	)

	code, ok := bybitIntervals[interval]
	if !ok {
		return nil, fmt.Errorf("unsupported interval: %s", interval)
	}
	limit = min(max(limit, 1), maxKlineLimit)

	params := url.Values{}
	params.Set("category", "spot")
	params.Set("symbol", pair(symbol))
	params.Set("interval", code)
	params.Set("limit", strconv.Itoa(limit))

	var res klineResult
	if err := c.get(ctx, "/v5/market/kline", params, &res); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(res.List))
	for _, row := range res.List {
		candle, err := parseKlineRow(row)
		if err != nil {
			return nil, fmt.Errorf("parse kline for %s: %w", symbol, err)
		}
		candles = append(candles, candle)
	}
	span.SetAttributes(attribute.Int("candles", len(candles)))
	return candles, nil
}

// Ticker returns the 24h market snapshot for SYMBOL/USDT.
func (c *Client) Ticker(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	ctx, span := c.tracer.Start(ctx, "exchange.ticker")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	params := url.Values{}
	params.Set("category", "spot")
	params.Set("symbol", pair(symbol))

	var res tickerResult
	if err := c.get(ctx, "/v5/market/tickers", params, &res); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(res.List) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSymbol, symbol)
	}

	t := res.List[0]
	return &domain.PriceSnapshot{
		Symbol:       strings.ToUpper(symbol),
		PriceUSD:     parseNumber(t.LastPrice),
		Change24hPct: percent(t.Price24hPcnt),
		High24h:      parseNumber(t.HighPrice24h),
		Low24h:       parseNumber(t.LowPrice24h),
		Volume24h:    parseNumber(t.Volume24h),
		Turnover24h:  parseNumber(t.Turnover24h),
		Bid:          parseNumber(t.Bid1Price),
		Ask:          parseNumber(t.Ask1Price),
		FetchedAt:    c.now().UTC(),
	}, nil
}

// ListSymbols returns the base coins of every trading USDT spot pair.
func (c *Client) ListSymbols(ctx context.Context) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "exchange.list-symbols")
	defer span.End()

	var out []string
	cursor := ""
	for {
		params := url.Values{}
		params.Set("category", "spot")
		params.Set("limit", strconv.Itoa(instrumentPage))
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var res instrumentsResult
		if err := c.get(ctx, "/v5/market/instruments-info", params, &res); err != nil {
			span.RecordError(err)
			return nil, err
		}
		for _, inst := range res.List {
			if inst.QuoteCoin != quoteCoin && !strings.HasSuffix(inst.Symbol, quoteCoin) {
				continue
			}
			if inst.Status != "" && inst.Status != "Trading" {
				continue
			}
			base := inst.BaseCoin
			if base == "" {
				base = strings.TrimSuffix(inst.Symbol, quoteCoin)
			}
			if base != "" {
				out = append(out, base)
			}
		}
		if res.NextPageCursor == "" || res.NextPageCursor == cursor {
			break
		}
		cursor = res.NextPageCursor
	}
	span.SetAttributes(attribute.Int("symbols", len(out)))
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %s", domain.ErrUpstreamTimeout, path)
		}
		return fmt.Errorf("bybit %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bybit %s: unexpected status %d", path, resp.StatusCode)
	}

	env := response[json.RawMessage]{}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode bybit %s: %w", path, err)
	}
	if env.RetCode == retCodeBadSymbol && params.Get("symbol") != "" {
		return fmt.Errorf("%w: %s (%s)", domain.ErrUnknownSymbol, params.Get("symbol"), env.RetMsg)
	}
	if env.RetCode != 0 {
		return fmt.Errorf("bybit %s: retCode %d: %s", path, env.RetCode, env.RetMsg)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode bybit %s result: %w", path, err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func pair(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol)) + quoteCoin
}

func parseKlineRow(row []string) (domain.Candle, error) {
	if len(row) < 6 {
		return domain.Candle{}, fmt.Errorf("kline row has %d fields", len(row))
	}
	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("timestamp %q: %w", row[0], err)
	}
	values := make([]float64, 5)
	for i := range values {
		d, err := decimal.NewFromString(row[i+1])
		if err != nil {
			return domain.Candle{}, fmt.Errorf("field %d %q: %w", i+1, row[i+1], err)
		}
		values[i] = d.InexactFloat64()
	}
	return domain.Candle{
		OpenTimeMs: ts,
		Open:       values[0],
		High:       values[1],
		Low:        values[2],
		Close:      values[3],
		Volume:     values[4],
	}, nil
}

func parseNumber(raw string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// percent converts Bybit's fractional change ("0.0123") into percent without float drift.
func percent(raw string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return d.Shift(2).InexactFloat64()
}
