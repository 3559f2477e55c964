package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"crypto-chart-bot/internal/advisor"
	"crypto-chart-bot/internal/cache"
	"crypto-chart-bot/internal/chart"
	"crypto-chart-bot/internal/config"
	"crypto-chart-bot/internal/exchange"
	"crypto-chart-bot/internal/job"
	mcpserver "crypto-chart-bot/internal/mcp"
	"crypto-chart-bot/internal/metrics"
	"crypto-chart-bot/internal/service"
	"crypto-chart-bot/internal/symbols"
	"crypto-chart-bot/pkg/tracing"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const defaultMCPHTTPMaxBodyBytes int64 = 1 << 20 // 1MiB

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	connectRedisFunc = cache.Connect
	initTracerFunc   = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		return tracing.InitTracerFor(ctx, tracing.ServiceName+"-mcp")
	}
	newExchangeFunc = func(tracer trace.Tracer, cfg *config.Config) *exchange.Client {
		return exchange.NewClient(tracer, cfg.BybitBaseURL, time.Duration(cfg.FetchTimeoutSecs)*time.Second)
	}
	newAIClientFunc = func(cfg *config.Config) service.TextGenerator {
		return advisor.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	newSymbolRefresherFunc = job.NewSymbolRefresher
	startRefresherFunc     = func(j *job.SymbolRefresher, ctx context.Context) {
		go func() {
			if err := j.Start(ctx); err != nil {
				log.Printf("symbol refresher failed: %v", err)
			}
		}()
	}
	newMCPServerFunc  = mcpserver.NewServer
	newMCPHandlerFunc = mcpserver.NewHTTPTransportHandler
	runStdioFunc      = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var store symbols.Store
	rdb, err := connectRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: redis unavailable, using in-memory symbol store: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
		store = symbols.NewRedisStore(rdb, symbols.DefaultRedisKey)
	}

	bybit := newExchangeFunc(tracer, cfg)
	symbolCache := symbols.NewCache(store, bybit)
	startRefresherFunc(newSymbolRefresherFunc(tracer, symbolCache, cfg.SymbolRefreshCron), ctx)

	ai := newAIClientFunc(cfg)
	renderer := chart.NewRenderer()
	resolver := chart.NewResolver(bybit, metrics.Observer{})

	mcpSrv := newMCPServerFunc(tracer, mcpserver.Services{
		Charts:    service.NewChartService(tracer, resolver, renderer, ai, time.Duration(cfg.AIPatternTimeoutSecs)*time.Second),
		Forecasts: service.NewForecastService(tracer, bybit, renderer, ai, time.Duration(cfg.AIForecastTimeoutSecs)*time.Second),
		Symbols:   symbolCache,
		Prices:    service.NewPriceService(tracer, bybit),
	}, mcpserver.ServerConfig{
		RequestTimeout: time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
	})

	transport := strings.ToLower(strings.TrimSpace(cfg.MCPTransport))
	switch transport {
	case "", "stdio":
		if err := runStdioFunc(ctx, mcpSrv); err != nil {
			log.Fatalf("mcp stdio server failed: %v", err)
		}
	case "http":
		if err := runHTTPMode(ctx, cancel, cfg, mcpSrv); err != nil {
			log.Fatalf("mcp http server failed: %v", err)
		}
	default:
		log.Fatalf("unsupported MCP_TRANSPORT: %s", cfg.MCPTransport)
	}
}

func runHTTPMode(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, mcpSrv *sdkmcp.Server) error {
	if !cfg.MCPHTTPEnabled {
		return fmt.Errorf("MCP_HTTP_ENABLED must be true when MCP_TRANSPORT=http")
	}
	if strings.TrimSpace(cfg.MCPAuthToken) == "" {
		return fmt.Errorf("MCP_AUTH_TOKEN is required when MCP_TRANSPORT=http")
	}

	handler := newMCPHandlerFunc(mcpSrv, mcpserver.HTTPHandlerConfig{
		AuthToken:       cfg.MCPAuthToken,
		RateLimitPerMin: cfg.MCPRateLimitPerMin,
		MaxBodyBytes:    defaultMCPHTTPMaxBodyBytes,
	})

	addr := net.JoinHostPort(cfg.MCPHTTPBind, fmt.Sprintf("%d", cfg.MCPHTTPPort))
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		log.Printf("mcp http transport listening on %s", addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Printf("mcp http server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		return fmt.Errorf("mcp server forced to shutdown: %w", err)
	}
	return nil
}
