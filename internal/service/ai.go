package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crypto-chart-bot/internal/advisor"
	"crypto-chart-bot/internal/domain"
	"crypto-chart-bot/internal/metrics"

	"github.com/google/uuid"
)

// TextGenerator is the AI collaborator. Failures are domain.ErrProviderDisabled,
// domain.ErrUpstreamTimeout, domain.ErrEmptyResponse or *advisor.BlockedError.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type enabler interface {
	Enabled() bool
}

func aiEnabled(ai TextGenerator) bool {
	if ai == nil {
		return false
	}
	if e, ok := ai.(enabler); ok {
		return e.Enabled()
	}
	return true
}

// generate calls ai with its own deadline and records the outcome under purpose.
func generate(ctx context.Context, ai TextGenerator, purpose, prompt string, timeout time.Duration) (string, error) {
	if ai == nil {
		metrics.ObserveAI(purpose, aiOutcome(domain.ErrProviderDisabled))
		return "", domain.ErrProviderDisabled
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	text, err := ai.Generate(ctx, prompt)
	if err == nil && ctx.Err() != nil {
		err = fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, ctx.Err())
	}
	metrics.ObserveAI(purpose, aiOutcome(err))
	return text, err
}

func aiOutcome(err error) string {
	var blocked *advisor.BlockedError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrProviderDisabled):
		return "disabled"
	case errors.As(err, &blocked):
		return "blocked"
	case errors.Is(err, domain.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrEmptyResponse):
		return "empty"
	default:
		return "error"
	}
}

// AIFailureMessage turns a TextGenerator failure into the line shown to the user.
func AIFailureMessage(err error) string {
	var blocked *advisor.BlockedError
	switch {
	case errors.Is(err, domain.ErrProviderDisabled):
		return "⚠️ AI analysis is currently disabled."
	case errors.As(err, &blocked):
		return fmt.Sprintf("⚠️ AI response was blocked: %s.", blocked.Reason)
	case errors.Is(err, domain.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return "❌ AI analysis timed out."
	case errors.Is(err, domain.ErrEmptyResponse):
		return "AI returned no analysis."
	default:
		return "❌ Error during AI analysis."
	}
}

func newRequestID() string {
	return uuid.NewString()[:8]
}
