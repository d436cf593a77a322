package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/wolf-eval/internal/model"
	"github.com/sells-group/wolf-eval/internal/resilience"
	"github.com/sells-group/wolf-eval/pkg/anthropic"
)

type MockAnthropicClient struct {
	mock.Mock
}

func (m *MockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func TestAnthropicCaller_SplitsSystemPrompt(t *testing.T) {
	client := new(MockAnthropicClient)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == anthropic.DefaultModel &&
			req.MaxTokens == 120 &&
			req.Temperature != nil && *req.Temperature == 0 &&
			len(req.System) == 1 && req.System[0].Text == "You are an analyst." &&
			len(req.Messages) == 1 && req.Messages[0].Role == "user"
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "Agent[01] claimed seer late. "}},
		Usage:   anthropic.TokenUsage{InputTokens: 900, OutputTokens: 20},
	}, nil)

	c := NewAnthropic(client, Settings{})
	ctx := WithCall(context.Background(), Call{Game: &model.GameRecord{ID: "g1"}, Condition: model.WithBeliefs})
	out, err := c.Generate(ctx, testMessages())
	require.NoError(t, err)
	assert.Equal(t, "Agent[01] claimed seer late.", out)
	assert.Equal(t, "anthropic:"+anthropic.DefaultModel, c.Name())
	client.AssertExpectations(t)
}

func TestAnthropicCaller_APIErrorBecomesStatusError(t *testing.T) {
	client := new(MockAnthropicClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, &anthropic.APIError{StatusCode: 529, Message: "overloaded"})

	_, err := NewAnthropic(client, Settings{}).Generate(context.Background(), testMessages())
	var se *resilience.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 529, se.StatusCode)
	assert.Equal(t, "anthropic", se.Service)
}

func TestAnthropicCaller_TransportError(t *testing.T) {
	client := new(MockAnthropicClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: no route"))

	_, err := NewAnthropic(client, Settings{}).Generate(context.Background(), testMessages())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm: anthropic generate")
}
