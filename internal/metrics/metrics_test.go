package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserverCountsAttempts(t *testing.T) {
	before := testutil.ToFloat64(FallbackAttempts.WithLabelValues("4h", "found"))
	Observer{}.ObserveFallbackAttempt("4h", true)
	Observer{}.ObserveFallbackAttempt("4h", false)

	if got := testutil.ToFloat64(FallbackAttempts.WithLabelValues("4h", "found")); got != before+1 {
		t.Fatalf("expected found counter to grow by 1, got %v -> %v", before, got)
	}
	if got := testutil.ToFloat64(FallbackAttempts.WithLabelValues("4h", "empty")); got < 1 {
		t.Fatalf("expected empty counter to be recorded, got %v", got)
	}
}

func TestObserveRenderCountsFailures(t *testing.T) {
	before := testutil.ToFloat64(RenderFailures.WithLabelValues("forecast"))
	ObserveRender("forecast", time.Now(), nil)
	ObserveRender("forecast", time.Now(), errors.New("boom"))
	if got := testutil.ToFloat64(RenderFailures.WithLabelValues("forecast")); got != before+1 {
		t.Fatalf("expected one new failure, got %v -> %v", before, got)
	}
}

func TestRegisterOnlyOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)
	Register(reg)

	ObserveAI("forecast", "ok")
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "chartbot_ai_requests_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected AI counter in registry")
	}
}
