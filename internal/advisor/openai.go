// Package advisor is the AI text collaborator. It turns prompts into free-form analysis text and
// reports provider problems as typed errors.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"crypto-chart-bot/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const systemPrompt = "You are a careful cryptocurrency technical analyst. Answer in Telegram Markdown and follow the requested output format exactly."

// LLMClient generates text for a prompt.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// BlockedError means the provider refused to answer.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return "ai response blocked: " + e.Reason
}

type OpenAIClient struct {
	client  openai.Client
	model   string
	enabled bool
}

// NewOpenAIClient returns a client that fails fast with domain.ErrProviderDisabled when apiKey is empty.
func NewOpenAIClient(apiKey, model string, opts ...option.RequestOption) *OpenAIClient {
	apiKey = strings.TrimSpace(apiKey)
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	c := &OpenAIClient{model: model, enabled: apiKey != ""}
	if c.enabled {
		opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
		c.client = openai.NewClient(opts...)
	}
	return c
}

func (c *OpenAIClient) Enabled() bool {
	return c != nil && c.enabled
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", domain.ErrProviderDisabled
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		if isTimeout(ctx, err) {
			return "", fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, err)
		}
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.ErrEmptyResponse
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", &BlockedError{Reason: "content filter"}
	}
	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		return "", &BlockedError{Reason: refusal}
	}
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return "", domain.ErrEmptyResponse
	}
	return text, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
