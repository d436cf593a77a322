// Package llm is the boundary between the evaluator and language-model
// backends. Every backend turns a list of prompt messages into one reply.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/sells-group/wolf-eval/internal/model"
)

// Caller produces a single reply for a prompt.
type Caller interface {
	Generate(ctx context.Context, msgs []model.PromptMessage) (string, error)
	Name() string
}

// Settings are the generation knobs shared by every backend.
type Settings struct {
	Model       string
	MaxTokens   int
	Temperature float64
	BaseURL     string
	Timeout     time.Duration
}

// DefaultMaxTokens caps reply length; an answer is one agent tag plus a sentence.
const DefaultMaxTokens = 120

func (s Settings) withDefaults(model, baseURL string) Settings {
	if s.Model == "" {
		s.Model = model
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = DefaultMaxTokens
	}
	if s.BaseURL == "" {
		s.BaseURL = baseURL
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	if s.Timeout <= 0 {
		s.Timeout = 2 * time.Minute
	}
	return s
}

// splitSystem separates system messages from the conversation. Multiple
// system messages are joined with a blank line.
func splitSystem(msgs []model.PromptMessage) (string, []model.PromptMessage) {
	var system []string
	rest := make([]model.PromptMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == model.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

// Func adapts a plain function to Caller.
type Func func(ctx context.Context, msgs []model.PromptMessage) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, msgs []model.PromptMessage) (string, error) {
	return f(ctx, msgs)
}

// Name implements Caller.
func (f Func) Name() string { return "func" }

// Static always replies with the same text.
type Static string

// Generate implements Caller.
func (s Static) Generate(context.Context, []model.PromptMessage) (string, error) {
	return string(s), nil
}

// Name implements Caller.
func (s Static) Name() string { return "static" }
