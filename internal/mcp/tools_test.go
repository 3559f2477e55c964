package mcp

import (
	"bytes"
	"context"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func connectTestServer(t *testing.T) (*sdkmcp.ClientSession, testDeps, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)

	srv, deps := testServer()
	session, shutdown, err := connectInMemory(ctx, srv)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	t.Cleanup(func() {
		session.Close()
		shutdown()
	})
	return session, deps, ctx
}

func TestToolsList(t *testing.T) {
	session, _, ctx := connectTestServer(t)

	tools, err := session.ListTools(ctx, &sdkmcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools failed: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"chart_render", "forecast_render", "symbols_search", "price_get"} {
		if !names[want] {
			t.Fatalf("missing tool %s in %v", want, names)
		}
	}
}

func TestChartRenderTool(t *testing.T) {
	session, deps, ctx := connectTestServer(t)

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "chart_render",
		Arguments: map[string]any{"symbol": "btc/usdt", "interval": "1H", "days": 30},
	})
	if err != nil {
		t.Fatalf("call tool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	if deps.charts.symbol != "BTC" || deps.charts.interval != "1h" || deps.charts.days != 30 {
		t.Fatalf("unexpected request %s %s %d", deps.charts.symbol, deps.charts.interval, deps.charts.days)
	}

	img, ok := res.Content[0].(*sdkmcp.ImageContent)
	if !ok {
		t.Fatalf("expected image content first, got %T", res.Content[0])
	}
	if img.MIMEType != "image/png" || !bytes.Equal(img.Data, pngStub) {
		t.Fatalf("unexpected image %s %q", img.MIMEType, img.Data)
	}

	var out chartRenderOutput
	if err := decodeStructured(res, &out); err != nil {
		t.Fatalf("decode structured output: %v", err)
	}
	if !out.Fallback || out.IntervalUsed != "4h" || out.DaysUsed != 30 {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestChartRenderDefaults(t *testing.T) {
	session, deps, ctx := connectTestServer(t)

	if _, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "chart_render",
		Arguments: map[string]any{"symbol": "eth"},
	}); err != nil {
		t.Fatalf("call tool failed: %v", err)
	}
	if deps.charts.interval != "1h" || deps.charts.days != 7 {
		t.Fatalf("expected 1h/7 defaults, got %s/%d", deps.charts.interval, deps.charts.days)
	}
}

func TestForecastRenderTool(t *testing.T) {
	session, deps, ctx := connectTestServer(t)

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "forecast_render",
		Arguments: map[string]any{"symbol": "BTC", "period": "3d"},
	})
	if err != nil {
		t.Fatalf("call tool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	if deps.forecasts.period != "3d" {
		t.Fatalf("unexpected period %q", deps.forecasts.period)
	}
	if len(res.Content) != 2 {
		t.Fatalf("expected image and caption, got %d blocks", len(res.Content))
	}
	text, ok := res.Content[1].(*sdkmcp.TextContent)
	if !ok || text.Text != deps.forecasts.res.Caption {
		t.Fatalf("unexpected caption block %+v", res.Content[1])
	}

	var out forecastRenderOutput
	if err := decodeStructured(res, &out); err != nil {
		t.Fatalf("decode structured output: %v", err)
	}
	if out.Horizon != "next 3 days" || !out.PathPlotted || !out.HasImage {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestSymbolsSearchTool(t *testing.T) {
	session, deps, ctx := connectTestServer(t)

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "symbols_search",
		Arguments: map[string]any{"query": "dog", "limit": 500},
	})
	if err != nil {
		t.Fatalf("call tool failed: %v", err)
	}
	var out symbolsSearchOutput
	if err := decodeStructured(res, &out); err != nil {
		t.Fatalf("decode structured output: %v", err)
	}
	if len(out.Symbols) != 2 || deps.searcher.limit != maxSearchLimit {
		t.Fatalf("unexpected search %+v (limit %d)", out, deps.searcher.limit)
	}
}

func TestToolsValidationFailure(t *testing.T) {
	session, _, ctx := connectTestServer(t)

	for _, params := range []*sdkmcp.CallToolParams{
		{Name: "chart_render", Arguments: map[string]any{"symbol": "BTC", "interval": "5m"}},
		{Name: "chart_render", Arguments: map[string]any{"symbol": "BTC", "days": 400}},
		{Name: "chart_render", Arguments: map[string]any{"symbol": "  "}},
		{Name: "forecast_render", Arguments: map[string]any{"symbol": "BTC", "period": "2w"}},
		{Name: "symbols_search", Arguments: map[string]any{"query": ""}},
	} {
		res, err := session.CallTool(ctx, params)
		if err != nil {
			t.Fatalf("%s: unexpected protocol error: %v", params.Name, err)
		}
		if !res.IsError {
			t.Fatalf("%s %v: expected tool-level validation error", params.Name, params.Arguments)
		}
	}
}
