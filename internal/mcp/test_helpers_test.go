package mcp

import (
	"context"
	"encoding/json"
	"time"

	"crypto-chart-bot/internal/domain"
	"crypto-chart-bot/internal/service"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var pngStub = []byte("\x89PNG\r\n\x1a\nstub")

type stubCharts struct {
	rc       *domain.RenderedChart
	err      error
	symbol   string
	interval string
	days     int
}

func (s *stubCharts) CreatePriceChart(_ context.Context, symbol, interval string, days int) (*domain.RenderedChart, error) {
	s.symbol, s.interval, s.days = symbol, interval, days
	if s.err != nil {
		return nil, s.err
	}
	return s.rc, nil
}

type stubForecasts struct {
	res    *service.ForecastResult
	period string
}

func (s *stubForecasts) Forecast(_ context.Context, _, period string) (*service.ForecastResult, error) {
	s.period = period
	p, _ := domain.LookupForecastPeriod(period)
	res := *s.res
	res.Period = p
	return &res, nil
}

type stubSearcher struct {
	matches []string
	limit   int
}

func (s *stubSearcher) Search(_ context.Context, _ string, limit int) ([]string, error) {
	s.limit = limit
	return s.matches, nil
}

type stubPrices struct{}

func (stubPrices) Snapshot(_ context.Context, symbol string) (*domain.PriceSnapshot, error) {
	return &domain.PriceSnapshot{Symbol: symbol, PriceUSD: 50000}, nil
}

type testDeps struct {
	charts    *stubCharts
	forecasts *stubForecasts
	searcher  *stubSearcher
}

func testServer() (*sdkmcp.Server, testDeps) {
	deps := testDeps{
		charts: &stubCharts{rc: &domain.RenderedChart{Image: pngStub, IntervalUsed: "4h", DaysUsed: 30, PatternAnalysis: "Ascending triangle."}},
		forecasts: &stubForecasts{res: &service.ForecastResult{
			RequestID:   "abcd1234",
			Symbol:      "BTC",
			Caption:     "🔮 [abcd1234] AI Price Forecast for BTC (next 3 days):\nUp.",
			Image:       pngStub,
			PathPlotted: true,
		}},
		searcher: &stubSearcher{matches: []string{"DOGE", "DOGS"}},
	}
	srv := NewServer(nil, Services{
		Charts:    deps.charts,
		Forecasts: deps.forecasts,
		Symbols:   deps.searcher,
		Prices:    stubPrices{},
	}, ServerConfig{RequestTimeout: time.Second})
	return srv, deps
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}

func decodeStructured(result *sdkmcp.CallToolResult, out any) error {
	raw, err := json.Marshal(result.StructuredContent)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
