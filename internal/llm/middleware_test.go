package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/wolf-eval/internal/model"
	"github.com/sells-group/wolf-eval/internal/resilience"
)

func fastPolicy(attempts int) resilience.Policy {
	return resilience.Policy{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestWithRetry_PersistentFailureMakesExactlyMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	inner := Func(func(context.Context, []model.PromptMessage) (string, error) {
		calls.Add(1)
		return "", errors.New("malformed completion")
	})

	_, err := WithRetry(inner, fastPolicy(5)).Generate(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, int32(5), calls.Load())
}

func TestWithRetry_RecoversAfterFailures(t *testing.T) {
	var calls atomic.Int32
	inner := Func(func(context.Context, []model.PromptMessage) (string, error) {
		if calls.Add(1) < 3 {
			return "", &resilience.StatusError{Service: "openai", StatusCode: 400}
		}
		return "Agent[02]", nil
	})

	out, err := WithRetry(inner, fastPolicy(5)).Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Agent[02]", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	inner := Func(func(context.Context, []model.PromptMessage) (string, error) {
		calls.Add(1)
		cancel()
		return "", context.Canceled
	})

	_, err := WithRetry(inner, fastPolicy(5)).Generate(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWithRetry_KeepsName(t *testing.T) {
	assert.Equal(t, "static", WithRetry(Static("x"), fastPolicy(1)).Name())
}

func TestWithBreaker_FailsFastAfterThreshold(t *testing.T) {
	var calls atomic.Int32
	inner := Func(func(context.Context, []model.PromptMessage) (string, error) {
		calls.Add(1)
		return "", errors.New("backend down")
	})
	c := WithBreaker(inner, resilience.NewBreaker(resilience.BreakerConfig{Threshold: 2, Cooldown: time.Hour}))

	for range 2 {
		_, err := c.Generate(context.Background(), nil)
		require.Error(t, err)
	}
	_, err := c.Generate(context.Background(), nil)
	require.ErrorIs(t, err, resilience.ErrBreakerOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestWithRateLimit_Spaces(t *testing.T) {
	c := WithRateLimit(Static("ok"), 50)

	start := time.Now()
	for range 3 {
		_, err := c.Generate(context.Background(), nil)
		require.NoError(t, err)
	}
	// Burst of one: the second and third calls each wait ~20ms.
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWithRateLimit_DisabledPassesThrough(t *testing.T) {
	inner := Static("ok")
	assert.Equal(t, Caller(inner), WithRateLimit(inner, 0))
}

func TestWithRateLimit_CanceledWait(t *testing.T) {
	c := WithRateLimit(Static("ok"), 0.001)
	_, err := c.Generate(context.Background(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Generate(ctx, nil)
	require.Error(t, err)
}

func TestFuncAndStatic(t *testing.T) {
	f := Func(func(_ context.Context, msgs []model.PromptMessage) (string, error) {
		return msgs[0].Content, nil
	})
	out, err := f.Generate(context.Background(), []model.PromptMessage{{Role: "user", Content: "echo"}})
	require.NoError(t, err)
	assert.Equal(t, "echo", out)
	assert.Equal(t, "func", f.Name())

	out, err = Static("Agent[01]").Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Agent[01]", out)
}

func TestSplitSystem(t *testing.T) {
	system, rest := splitSystem([]model.PromptMessage{
		{Role: model.RoleSystem, Content: "a"},
		{Role: model.RoleUser, Content: "q"},
		{Role: model.RoleSystem, Content: "b"},
	})
	assert.Equal(t, "a\n\nb", system)
	assert.Equal(t, []model.PromptMessage{{Role: model.RoleUser, Content: "q"}}, rest)
}
