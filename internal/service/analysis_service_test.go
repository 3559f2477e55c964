package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"crypto-chart-bot/internal/domain"
	"crypto-chart-bot/internal/forecast"
)

func newAnalysisService(fetcher *stubFetcher, ai TextGenerator) *AnalysisService {
	svc := NewAnalysisService(testTracer, fetcher, ai, 0)
	svc.newID = fixedID
	return svc
}

func TestAnalyzeAddsDisclaimerAndHeader(t *testing.T) {
	fetcher := &stubFetcher{candles: newestFirst(80)}
	ai := &stubAI{text: "Bull flag forming above 150."}
	svc := newAnalysisService(fetcher, ai)

	got, err := svc.Analyze(context.Background(), "sol", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.calls[0] != "SOL/4h" || fetcher.limits[0] != forecast.AnalyzeFetchCandles {
		t.Fatalf("unexpected fetch %v %v", fetcher.calls, fetcher.limits)
	}
	if got.Interval != "4h" || got.Days != 7 {
		t.Fatalf("unexpected defaults %+v", got)
	}
	wantPrefix := "🔍 [abcd1234] **SOL (4h, 7d context) - AI Chart Pattern Analysis:**\n\n" + forecast.Disclaimer + "\n\n"
	if !strings.HasPrefix(got.Text, wantPrefix) || !strings.HasSuffix(got.Text, "Bull flag forming above 150.") {
		t.Fatalf("unexpected text %q", got.Text)
	}
	if strings.Count(ai.prompts[0], "Candle ") != forecast.AnalyzePromptCandles {
		t.Fatalf("expected %d candles in prompt", forecast.AnalyzePromptCandles)
	}
}

func TestAnalyzeKeepsExistingDisclaimerAndTruncates(t *testing.T) {
	reply := forecast.Disclaimer + " Always DYOR.\n\n" + strings.Repeat("x", 5000)
	svc := newAnalysisService(&stubFetcher{candles: newestFirst(50)}, &stubAI{text: reply})

	got, err := svc.Analyze(context.Background(), "BTC", "1d", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(got.Text, forecast.Disclaimer) != 1 {
		t.Fatal("disclaimer must not be duplicated")
	}
	body := got.Text[strings.Index(got.Text, "\n\n")+2:]
	if utf8.RuneCountInString(body) != analyzeReplyLimit || !strings.HasSuffix(body, analyzeEllipsis) {
		t.Fatalf("expected body truncated to %d chars, got %d", analyzeReplyLimit, utf8.RuneCountInString(body))
	}
}

func TestAnalyzeErrors(t *testing.T) {
	cases := []struct {
		name     string
		fetcher  *stubFetcher
		ai       TextGenerator
		interval string
		days     int
		want     error
	}{
		{name: "bad interval", fetcher: &stubFetcher{}, ai: &stubAI{}, interval: "15m", days: 7, want: domain.ErrInvalidArgument},
		{name: "days too high", fetcher: &stubFetcher{}, ai: &stubAI{}, interval: "1h", days: 91, want: domain.ErrInvalidArgument},
		{name: "disabled", fetcher: &stubFetcher{}, ai: &disabledAI{}, interval: "1h", days: 7, want: domain.ErrProviderDisabled},
		{name: "few candles", fetcher: &stubFetcher{candles: newestFirst(4)}, ai: &stubAI{}, interval: "1h", days: 7, want: domain.ErrInsufficientData},
		{name: "timeout", fetcher: &stubFetcher{candles: newestFirst(50)}, ai: &stubAI{err: domain.ErrUpstreamTimeout}, interval: "1h", days: 7, want: domain.ErrUpstreamTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newAnalysisService(tc.fetcher, tc.ai)
			if _, err := svc.Analyze(context.Background(), "BTC", tc.interval, tc.days); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAIFailureMessage(t *testing.T) {
	if got := AIFailureMessage(errors.New("boom")); got != "❌ Error during AI analysis." {
		t.Fatalf("unexpected message %q", got)
	}
	if got := AIFailureMessage(domain.ErrEmptyResponse); got != "AI returned no analysis." {
		t.Fatalf("unexpected message %q", got)
	}
}
