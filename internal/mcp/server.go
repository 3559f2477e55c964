// Package mcp exposes the chart and forecast pipelines as Model Context Protocol tools and resources.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"crypto-chart-bot/internal/symbols"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// defaultRequestTimeout outlasts the forecast AI deadline.
const defaultRequestTimeout = 90 * time.Second

type ServerConfig struct {
	RequestTimeout time.Duration
}

func NewServer(tracer trace.Tracer, svc Services, cfg ServerConfig) *sdkmcp.Server {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	srv := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "crypto-chart-bot-mcp",
		Version: "1.0.0",
	}, &sdkmcp.ServerOptions{
		Instructions: "Render candlestick charts and AI price forecasts for Bybit USDT spot pairs. Use symbols_search when unsure about a ticker.",
		Logger:       slog.Default(),
	})

	srv.AddReceivingMiddleware(timeoutMiddleware(requestTimeout))
	if tracer != nil {
		srv.AddReceivingMiddleware(tracingMiddleware(tracer))
	}

	registerTools(srv, svc)
	registerResources(srv, svc)
	return srv
}

func NewHTTPTransportHandler(server *sdkmcp.Server, cfg HTTPHandlerConfig) http.Handler {
	base := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, &sdkmcp.StreamableHTTPOptions{})
	return wrapHTTPHandler(base, cfg)
}

// timeoutMiddleware bounds every request, including tool calls that wait on the forecast model.
func timeoutMiddleware(timeout time.Duration) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, method, req)
		}
	}
}

// tracingMiddleware opens one span per request. A tool result flagged IsError marks the span
// failed even though the protocol call itself succeeded.
func tracingMiddleware(tracer trace.Tracer) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			name, attrs := describeRequest(method, req)
			ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
			defer span.End()

			result, err := next(ctx, method, req)
			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			case isToolError(result):
				span.SetStatus(codes.Error, "tool returned an error result")
			}
			return result, err
		}
	}
}

func isToolError(result sdkmcp.Result) bool {
	res, ok := result.(*sdkmcp.CallToolResult)
	return ok && res != nil && res.IsError
}

// describeRequest names the span after the tool or resource scheme being served and tags it
// with the requested symbol when one is present.
func describeRequest(method string, req sdkmcp.Request) (string, []attribute.KeyValue) {
	attrs := []attribute.KeyValue{attribute.String("mcp.method", method)}

	switch r := req.(type) {
	case *sdkmcp.CallToolRequest:
		if r.Params == nil {
			break
		}
		tool := strings.TrimSpace(r.Params.Name)
		if tool == "" {
			return "mcp.tool.call", attrs
		}
		attrs = append(attrs, attribute.String("mcp.tool", tool))
		var args struct {
			Symbol string `json:"symbol"`
		}
		if len(r.Params.Arguments) > 0 && json.Unmarshal(r.Params.Arguments, &args) == nil {
			if symbol := symbols.Normalize(args.Symbol); symbol != "" {
				attrs = append(attrs, attribute.String("crypto.symbol", symbol))
			}
		}
		return "mcp.tool." + tool, attrs
	case *sdkmcp.ReadResourceRequest:
		if r.Params == nil {
			break
		}
		uri := strings.TrimSpace(r.Params.URI)
		attrs = append(attrs, attribute.String("mcp.resource.uri", uri))
		if scheme, _, ok := strings.Cut(uri, "://"); ok && scheme != "" {
			return "mcp.resource." + scheme, attrs
		}
		return "mcp.resource.read", attrs
	}
	return "mcp." + strings.ReplaceAll(method, "/", "."), attrs
}
