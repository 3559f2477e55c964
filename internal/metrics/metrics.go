// Package metrics holds the Prometheus collectors for chart rendering and AI calls.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chartbot"

var (
	once sync.Once

	// RenderDuration observes successful and failed renders by kind ("candlestick", "forecast").
	RenderDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "render",
		Name:      "duration_seconds",
		Help:      "Time spent drawing and encoding a chart image",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"kind"})

	RenderFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "render",
		Name:      "failures_total",
		Help:      "Chart renders that produced no image",
	}, []string{"kind"})

	// FallbackAttempts counts every interval candidate tried by the resolver.
	FallbackAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "resolver",
		Name:      "attempts_total",
		Help:      "Kline fetch attempts by interval and whether data was found",
	}, []string{"interval", "result"})

	AIOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ai",
		Name:      "requests_total",
		Help:      "AI text generation calls by purpose and outcome",
	}, []string{"purpose", "outcome"})
)

// Register adds the collectors to reg, or to the default registerer when reg is nil. Only the first call registers.
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(RenderDuration, RenderFailures, FallbackAttempts, AIOutcomes)
	})
}

func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})
}

// ObserveRender records one render of kind that started at start.
func ObserveRender(kind string, start time.Time, err error) {
	RenderDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		RenderFailures.WithLabelValues(kind).Inc()
	}
}

func ObserveAI(purpose, outcome string) {
	AIOutcomes.WithLabelValues(purpose, outcome).Inc()
}

// Observer feeds resolver attempts into FallbackAttempts.
type Observer struct{}

func (Observer) ObserveFallbackAttempt(interval string, found bool) {
	result := "empty"
	if found {
		result = "found"
	}
	FallbackAttempts.WithLabelValues(interval, result).Inc()
}
