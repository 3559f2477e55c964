package main

import (
	"context"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"crypto-chart-bot/internal/advisor"
	"crypto-chart-bot/internal/bot"
	"crypto-chart-bot/internal/cache"
	"crypto-chart-bot/internal/chart"
	"crypto-chart-bot/internal/config"
	"crypto-chart-bot/internal/exchange"
	"crypto-chart-bot/internal/handler"
	"crypto-chart-bot/internal/job"
	"crypto-chart-bot/internal/metrics"
	"crypto-chart-bot/internal/service"
	"crypto-chart-bot/internal/symbols"
	"crypto-chart-bot/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "crypto-chart-bot/docs"
)

var (
	loadEnvFunc         = godotenv.Load
	loadConfigFunc      = config.Load
	connectRedisFunc    = cache.Connect
	initTracerFunc      = tracing.InitTracer
	registerMetricsFunc = func() { metrics.Register(nil) }
	newExchangeFunc     = func(tracer trace.Tracer, cfg *config.Config) *exchange.Client {
		return exchange.NewClient(tracer, cfg.BybitBaseURL, time.Duration(cfg.FetchTimeoutSecs)*time.Second)
	}
	newAIClientFunc = func(cfg *config.Config) service.TextGenerator {
		return advisor.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	newRendererFunc        = chart.NewRenderer
	newSymbolRefresherFunc = job.NewSymbolRefresher
	startRefresherFunc     = func(j *job.SymbolRefresher, ctx context.Context) {
		go func() {
			if err := j.Start(ctx); err != nil {
				log.Printf("symbol refresher failed: %v", err)
			}
		}()
	}
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Crypto Chart Bot API
// @version         1.0
// @description     Candlestick charts, AI forecasts and symbol lookup for Bybit spot pairs.

// @host      localhost:8080
// @BasePath  /
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
	registerMetricsFunc()

	// Symbol cache: redis when configured, memory otherwise
	var store symbols.Store
	rdb, err := connectRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: redis unavailable, using in-memory symbol store: %v", err)
	}
	if rdb != nil {
		defer closeRedis(rdb)
		store = symbols.NewRedisStore(rdb, symbols.DefaultRedisKey)
	}

	bybit := newExchangeFunc(tracer, cfg)
	symbolCache := symbols.NewCache(store, bybit)
	refresher := newSymbolRefresherFunc(tracer, symbolCache, cfg.SymbolRefreshCron)
	startRefresherFunc(refresher, ctx)

	// Chart and forecast pipelines
	ai := newAIClientFunc(cfg)
	renderer := newRendererFunc()
	resolver := chart.NewResolver(bybit, metrics.Observer{})
	charts := service.NewChartService(tracer, resolver, renderer, ai, seconds(cfg.AIPatternTimeoutSecs))
	forecasts := service.NewForecastService(tracer, bybit, renderer, ai, seconds(cfg.AIForecastTimeoutSecs))
	analysis := service.NewAnalysisService(tracer, bybit, ai, seconds(cfg.AIPatternTimeoutSecs))
	prices := service.NewPriceService(tracer, bybit)

	if _, err := startTelegramBotFunc(ctx, cfg.TelegramBotToken, bot.Services{
		Charts:    charts,
		Forecasts: forecasts,
		Analysis:  analysis,
		Prices:    prices,
		Symbols:   symbolCache,
	}); err != nil {
		log.Printf("Telegram bot failed to start: %v", err)
	}

	h := newHandlerFunc(tracer, charts, forecasts, symbolCache)

	r := newRouterFunc()
	r.Use(cors.Default())
	r.Use(otelgin.Middleware(tracing.ServiceName))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    httpAddr(cfg.Port),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

// httpAddr accepts "8080" or ":8080".
func httpAddr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func closeRedis(rdb *redis.Client) {
	if err := rdb.Close(); err != nil {
		log.Printf("error closing redis: %v", err)
	}
}
