package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const pngMIME = "image/png"

func registerTools(server *mcp.Server, svc Services) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "chart_render",
		Description: "Render a candlestick chart PNG. Falls back to the closest interval/day pair with data and reports which one was used.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in chartRenderInput) (*mcp.CallToolResult, chartRenderOutput, error) {
		if svc.Charts == nil {
			return nil, chartRenderOutput{}, fmt.Errorf("chart service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, chartRenderOutput{}, err
		}
		interval, err := normalizeInterval(in.Interval)
		if err != nil {
			return nil, chartRenderOutput{}, err
		}
		days, err := normalizeDays(in.Days)
		if err != nil {
			return nil, chartRenderOutput{}, err
		}

		rc, err := svc.Charts.CreatePriceChart(ctx, symbol, interval, days)
		if err != nil {
			return nil, chartRenderOutput{}, err
		}
		out := chartRenderOutput{
			Symbol:          symbol,
			IntervalUsed:    rc.IntervalUsed,
			DaysUsed:        rc.DaysUsed,
			Fallback:        rc.IntervalUsed != interval || rc.DaysUsed != days,
			PatternAnalysis: rc.PatternAnalysis,
		}
		summary := fmt.Sprintf("%s/USDT %s candles over %d days", symbol, rc.IntervalUsed, rc.DaysUsed)
		if out.Fallback {
			summary += fmt.Sprintf(" (requested %s over %d days)", interval, days)
		}
		return &mcp.CallToolResult{Content: []mcp.Content{
			&mcp.ImageContent{Data: rc.Image, MIMEType: pngMIME},
			&mcp.TextContent{Text: summary},
		}}, out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "forecast_render",
		Description: "Ask the AI for a price forecast and render it over recent history. AI failures are reported in the caption.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in forecastRenderInput) (*mcp.CallToolResult, forecastRenderOutput, error) {
		if svc.Forecasts == nil {
			return nil, forecastRenderOutput{}, fmt.Errorf("forecast service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, forecastRenderOutput{}, err
		}
		period, err := normalizePeriod(in.Period)
		if err != nil {
			return nil, forecastRenderOutput{}, err
		}

		res, err := svc.Forecasts.Forecast(ctx, symbol, period)
		if err != nil {
			return nil, forecastRenderOutput{}, err
		}
		out := forecastRenderOutput{
			RequestID:   res.RequestID,
			Symbol:      symbol,
			Period:      res.Period.Key,
			Horizon:     string(res.Period.Horizon),
			Caption:     res.Caption,
			PathPlotted: res.PathPlotted,
			HasImage:    len(res.Image) > 0,
		}
		content := make([]mcp.Content, 0, 2)
		if out.HasImage {
			content = append(content, &mcp.ImageContent{Data: res.Image, MIMEType: pngMIME})
		}
		content = append(content, &mcp.TextContent{Text: res.Caption})
		return &mcp.CallToolResult{Content: content}, out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "symbols_search",
		Description: "Find tradable USDT spot pairs by ticker or name",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in symbolsSearchInput) (*mcp.CallToolResult, symbolsSearchOutput, error) {
		if svc.Symbols == nil {
			return nil, symbolsSearchOutput{}, fmt.Errorf("symbol cache unavailable")
		}
		if in.Query == "" {
			return nil, symbolsSearchOutput{}, fmt.Errorf("query is required")
		}
		matches, err := svc.Symbols.Search(ctx, in.Query, normalizeSearchLimit(in.Limit))
		if err != nil {
			return nil, symbolsSearchOutput{}, err
		}
		if matches == nil {
			matches = []string{}
		}
		return nil, symbolsSearchOutput{Query: in.Query, Symbols: matches}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "price_get",
		Description: "Get the latest ticker snapshot for one symbol",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in priceGetInput) (*mcp.CallToolResult, priceGetOutput, error) {
		if svc.Prices == nil {
			return nil, priceGetOutput{}, fmt.Errorf("price service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, priceGetOutput{}, err
		}
		snap, err := svc.Prices.Snapshot(ctx, symbol)
		if err != nil {
			return nil, priceGetOutput{}, err
		}
		return nil, priceGetOutput{Price: snap}, nil
	})
}
