package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"crypto-chart-bot/internal/domain"
	"crypto-chart-bot/internal/symbols"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResources(server *mcp.Server, svc Services) {
	server.AddResource(&mcp.Resource{
		URI:         "market://supported-intervals",
		Name:        "supported-intervals",
		Description: "Chart intervals in fallback order",
		MIMEType:    "application/json",
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, domain.SupportedIntervals)
	})

	server.AddResource(&mcp.Resource{
		URI:         "market://forecast-horizons",
		Name:        "forecast-horizons",
		Description: "Forecast periods with their point count, spacing and prompt history",
		MIMEType:    "application/json",
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, forecastHorizons())
	})

	server.AddResource(&mcp.Resource{
		URI:         "market://popular-symbols",
		Name:        "popular-symbols",
		Description: "Popular coins suggested to chat users",
		MIMEType:    "application/json",
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, symbols.Popular())
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "chart://{symbol}/{interval}{?days}",
		Name:        "chart-png",
		Description: "Candlestick chart PNG for a symbol and interval; optional days query param",
		MIMEType:    pngMIME,
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if svc.Charts == nil {
			return nil, fmt.Errorf("chart service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil || parsed.Scheme != "chart" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		symbol, err := normalizeSymbol(parsed.Host)
		if err != nil {
			return nil, err
		}
		interval, err := normalizeInterval(strings.Trim(strings.TrimSpace(parsed.Path), "/"))
		if err != nil {
			return nil, err
		}
		days := defaultChartDays
		if raw := strings.TrimSpace(parsed.Query().Get("days")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid days: %s", raw)
			}
			if days, err = normalizeDays(n); err != nil {
				return nil, err
			}
		}

		rc, err := svc.Charts.CreatePriceChart(ctx, symbol, interval, days)
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: pngMIME,
				Blob:     rc.Image,
			}},
		}, nil
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
