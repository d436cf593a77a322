package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wolf-eval/internal/config"
	"github.com/sells-group/wolf-eval/internal/resilience"
	"github.com/sells-group/wolf-eval/pkg/anthropic"
)

// ResolveProvider picks the backend for cfg. An explicit provider wins;
// "auto" takes the first configured key in the order OpenAI, OpenRouter,
// Anthropic, Gemini and otherwise falls back to local Ollama.
func ResolveProvider(cfg *config.Config) string {
	if cfg.Model.Provider != "" && cfg.Model.Provider != "auto" {
		return cfg.Model.Provider
	}
	switch {
	case cfg.OpenAI.Key != "":
		return "openai"
	case cfg.OpenRouter.Key != "":
		return "openrouter"
	case cfg.Anthropic.Key != "":
		return "anthropic"
	case cfg.Gemini.Key != "":
		return "gemini"
	default:
		return "ollama"
	}
}

// New builds the backend selected by cfg without any decorators.
func New(ctx context.Context, cfg *config.Config) (Caller, error) {
	provider := ResolveProvider(cfg)
	s := Settings{
		Model:       cfg.Model.Name,
		MaxTokens:   cfg.Model.MaxTokens,
		Temperature: cfg.Model.Temperature,
		BaseURL:     cfg.Model.BaseURL,
		Timeout:     time.Duration(cfg.Model.TimeoutSecs) * time.Second,
	}

	requireKey := func(key, name string) error {
		if key == "" {
			return eris.Errorf("llm: provider %s requires %s.key", provider, name)
		}
		return nil
	}

	var (
		c   Caller
		err error
	)
	switch provider {
	case "openai":
		if err = requireKey(cfg.OpenAI.Key, "openai"); err == nil {
			c = NewOpenAI(cfg.OpenAI.Key, s)
		}
	case "openrouter":
		if err = requireKey(cfg.OpenRouter.Key, "openrouter"); err == nil {
			c = NewOpenRouter(cfg.OpenRouter.Key, s)
		}
	case "anthropic":
		if err = requireKey(cfg.Anthropic.Key, "anthropic"); err == nil {
			s = s.withDefaults(anthropic.DefaultModel, "")
			c = NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key, anthropic.Options{BaseURL: s.BaseURL, Timeout: s.Timeout}), s)
		}
	case "gemini":
		if err = requireKey(cfg.Gemini.Key, "gemini"); err == nil {
			c, err = NewGemini(ctx, cfg.Gemini.Key, s)
		}
	case "ollama":
		if s.BaseURL == "" {
			s.BaseURL = cfg.Ollama.Endpoint
		}
		c = NewOllama(s)
	default:
		err = eris.Errorf("llm: unknown provider %q", provider)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("model backend selected",
		zap.String("provider", provider),
		zap.String("caller", c.Name()),
	)
	return c, nil
}

// NewFromConfig builds the backend and wraps it with the configured retry
// schedule, circuit breaker and rate limit.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Caller, error) {
	c, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Decorate(c, cfg), nil
}

// Decorate applies retry, breaker and rate limiting from cfg. The rate
// limit sits innermost so retried attempts are throttled too.
func Decorate(c Caller, cfg *config.Config) Caller {
	c = WithRateLimit(c, cfg.Model.RequestsPerSecond)
	c = WithRetry(c, resilience.FromSettings(
		cfg.Retry.MaxAttempts,
		cfg.Retry.InitialBackoffMs,
		cfg.Retry.MaxBackoffMs,
		cfg.Retry.Multiplier,
		cfg.Retry.JitterFraction,
	))
	if cfg.Breaker.Threshold > 0 {
		bc := resilience.BreakerFromSettings(cfg.Breaker.Threshold, cfg.Breaker.CooldownSecs)
		bc.OnStateChange = func(from, to resilience.BreakerState) {
			zap.L().Warn("model breaker state change",
				zap.String("caller", c.Name()),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		}
		c = WithBreaker(c, resilience.NewBreaker(bc))
	}
	return c
}
