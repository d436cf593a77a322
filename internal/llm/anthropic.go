package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wolf-eval/internal/model"
	"github.com/sells-group/wolf-eval/internal/resilience"
	"github.com/sells-group/wolf-eval/pkg/anthropic"
)

// AnthropicCaller calls the Anthropic Messages API.
type AnthropicCaller struct {
	client anthropic.Client
	s      Settings
}

// NewAnthropic creates a Caller over an Anthropic client.
func NewAnthropic(client anthropic.Client, s Settings) *AnthropicCaller {
	return &AnthropicCaller{client: client, s: s.withDefaults(anthropic.DefaultModel, "")}
}

// Name implements Caller.
func (c *AnthropicCaller) Name() string { return "anthropic:" + c.s.Model }

// Generate implements Caller.
func (c *AnthropicCaller) Generate(ctx context.Context, msgs []model.PromptMessage) (string, error) {
	system, rest := splitSystem(msgs)

	temp := c.s.Temperature
	req := anthropic.MessageRequest{
		Model:       c.s.Model,
		MaxTokens:   int64(c.s.MaxTokens),
		Messages:    make([]anthropic.Message, len(rest)),
		Temperature: &temp,
	}
	if system != "" {
		req.System = []anthropic.SystemBlock{{Text: system}}
	}
	for i, m := range rest {
		req.Messages[i] = anthropic.Message{Role: m.Role, Content: m.Content}
	}

	resp, err := c.client.CreateMessage(ctx, req)
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return "", &resilience.StatusError{Service: "anthropic", StatusCode: apiErr.StatusCode, Body: apiErr.Message}
		}
		return "", eris.Wrap(err, "llm: anthropic generate")
	}

	resp.Usage.LogCost(c.s.Model)
	if call, ok := CallFrom(ctx); ok {
		zap.L().Debug("anthropic reply",
			zap.String("game_id", call.Game.ID),
			zap.Stringer("condition", call.Condition),
			zap.String("stop_reason", resp.StopReason),
		)
	}
	return strings.TrimSpace(resp.Text()), nil
}
