package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crypto-chart-bot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(trace.NewNoopTracerProvider().Tracer("test"), srv.URL, time.Second)
}

func TestFetchKlines(t *testing.T) {
	var gotQuery map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v5/market/kline" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{
			"category": q.Get("category"),
			"symbol":   q.Get("symbol"),
			"interval": q.Get("interval"),
			"limit":    q.Get("limit"),
		}
		_, _ = w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"symbol":"BTCUSDT","list":[
			["1700003600000","101","103","100.5","102","12.5","1275"],
			["1700000000000","100","102","99","101","10","1005"]
		]}}`))
	})

	candles, err := client.FetchKlines(context.Background(), "btc", "4h", 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery["category"] != "spot" || gotQuery["symbol"] != "BTCUSDT" || gotQuery["interval"] != "240" || gotQuery["limit"] != "42" {
		t.Fatalf("unexpected query %+v", gotQuery)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].OpenTimeMs != 1700003600000 || candles[0].Low != 100.5 || candles[0].Volume != 12.5 {
		t.Fatalf("unexpected newest candle %+v", candles[0])
	}
	if candles[0].OpenTimeMs < candles[1].OpenTimeMs {
		t.Fatal("expected newest-first order to be preserved")
	}
}

func TestFetchKlinesClampsLimit(t *testing.T) {
	var limit string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		limit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`{"retCode":0,"result":{"list":[]}}`))
	})
	candles, err := client.FetchKlines(context.Background(), "ETH", "1h", 8760)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 0 {
		t.Fatalf("expected empty result, got %d", len(candles))
	}
	if limit != "1000" {
		t.Fatalf("expected clamped limit 1000, got %s", limit)
	}
}

func TestFetchKlinesErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		payload string
	}{
		{name: "retCode", status: http.StatusOK, payload: `{"retCode":10001,"retMsg":"params error","result":{}}`},
		{name: "status", status: http.StatusBadGateway, payload: `{}`},
		{name: "bad number", status: http.StatusOK, payload: `{"retCode":0,"result":{"list":[["1","x","1","1","1","1"]]}}`},
		{name: "short row", status: http.StatusOK, payload: `{"retCode":0,"result":{"list":[["1","1"]]}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.payload))
			})
			if _, err := client.FetchKlines(context.Background(), "BTC", "1d", 30); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFetchKlinesRejectsUnknownInterval(t *testing.T) {
	client := NewClient(trace.NewNoopTracerProvider().Tracer("test"), "http://127.0.0.1:1", time.Second)
	if _, err := client.FetchKlines(context.Background(), "BTC", "15m", 10); err == nil {
		t.Fatal("expected unsupported interval error")
	}
}

func TestFetchKlinesTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"retCode":0,"result":{"list":[]}}`))
	})
	client.http.Timeout = 20 * time.Millisecond

	_, err := client.FetchKlines(context.Background(), "BTC", "1h", 10)
	if !errors.Is(err, domain.ErrUpstreamTimeout) {
		t.Fatalf("expected ErrUpstreamTimeout, got %v", err)
	}
}

func TestTicker(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "SOLUSDT" {
			t.Errorf("unexpected symbol %s", r.URL.Query().Get("symbol"))
		}
		_, _ = w.Write([]byte(`{"retCode":0,"result":{"list":[{"symbol":"SOLUSDT","lastPrice":"150.25","price24hPcnt":"-0.0125",
			"highPrice24h":"155","lowPrice24h":"148","volume24h":"1000","turnover24h":"150250","bid1Price":"150.2","ask1Price":"150.3"}]}}`))
	})
	client.now = func() time.Time { return fixed }

	snap, err := client.Ticker(context.Background(), "sol")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Symbol != "SOL" || snap.PriceUSD != 150.25 || snap.Change24hPct != -1.25 || snap.Bid != 150.2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if !snap.FetchedAt.Equal(fixed) {
		t.Fatalf("unexpected fetch time %v", snap.FetchedAt)
	}
}

func TestTickerUnknownSymbol(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":0,"result":{"list":[]}}`))
	})
	if _, err := client.Ticker(context.Background(), "NOPE"); !errors.Is(err, domain.ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestTickerNotSupportedSymbol(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retCode":10001,"retMsg":"Not supported symbols","result":{}}`))
	})
	if _, err := client.Ticker(context.Background(), "NOPE"); !errors.Is(err, domain.ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestListSymbolsPaginatesAndFilters(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("cursor") == "" {
			_, _ = w.Write([]byte(`{"retCode":0,"result":{"nextPageCursor":"page2","list":[
				{"symbol":"BTCUSDT","baseCoin":"BTC","quoteCoin":"USDT","status":"Trading"},
				{"symbol":"ETHBTC","baseCoin":"ETH","quoteCoin":"BTC","status":"Trading"}
			]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"retCode":0,"result":{"nextPageCursor":"","list":[
			{"symbol":"OLDUSDT","baseCoin":"OLD","quoteCoin":"USDT","status":"Closed"},
			{"symbol":"PEPEUSDT","baseCoin":"PEPE","quoteCoin":"USDT","status":"Trading"}
		]}}`))
	})

	symbols, err := client.ListSymbols(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 pages, got %d", calls)
	}
	if len(symbols) != 2 || symbols[0] != "BTC" || symbols[1] != "PEPE" {
		t.Fatalf("unexpected symbols %+v", symbols)
	}
}
