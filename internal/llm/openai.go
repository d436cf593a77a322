package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/wolf-eval/internal/model"
	"github.com/sells-group/wolf-eval/internal/resilience"
)

// Endpoints and default models for the chat-completions providers.
const (
	OpenAIBaseURL       = "https://api.openai.com/v1"
	OpenRouterBaseURL   = "https://openrouter.ai/api/v1"
	DefaultOpenAIModel  = "gpt-4.1"
	DefaultRouterModel  = "openai/gpt-4.1"
	openRouterReferer   = "https://github.com/sells-group/wolf-eval"
	openRouterAppTitle  = "wolf-eval"
	maxErrorBodyPreview = 4096
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ChatCaller speaks the OpenAI chat-completions wire format. OpenRouter
// uses the same format behind a different base URL.
type ChatCaller struct {
	provider string
	apiKey   string
	headers  map[string]string
	s        Settings
	http     *http.Client
}

// NewOpenAI creates a Caller for the OpenAI API.
func NewOpenAI(apiKey string, s Settings) *ChatCaller {
	s = s.withDefaults(DefaultOpenAIModel, OpenAIBaseURL)
	return &ChatCaller{
		provider: "openai",
		apiKey:   apiKey,
		s:        s,
		http:     &http.Client{Timeout: s.Timeout},
	}
}

// NewOpenRouter creates a Caller for OpenRouter.
func NewOpenRouter(apiKey string, s Settings) *ChatCaller {
	s = s.withDefaults(DefaultRouterModel, OpenRouterBaseURL)
	return &ChatCaller{
		provider: "openrouter",
		apiKey:   apiKey,
		headers: map[string]string{
			"HTTP-Referer": openRouterReferer,
			"X-Title":      openRouterAppTitle,
		},
		s:    s,
		http: &http.Client{Timeout: s.Timeout},
	}
}

// Name implements Caller.
func (c *ChatCaller) Name() string { return c.provider + ":" + c.s.Model }

// Generate implements Caller.
func (c *ChatCaller) Generate(ctx context.Context, msgs []model.PromptMessage) (string, error) {
	body := chatRequest{
		Model:       c.s.Model,
		Messages:    make([]chatMessage, len(msgs)),
		Temperature: c.s.Temperature,
		MaxTokens:   c.s.MaxTokens,
	}
	for i, m := range msgs {
		body.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", eris.Wrapf(err, "llm: %s marshal request", c.provider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.s.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrapf(err, "llm: %s create request", c.provider)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "llm: %s request", c.provider)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resilience.MarkTransient(eris.Wrapf(err, "llm: %s read response", c.provider))
	}
	if resp.StatusCode != http.StatusOK {
		if len(raw) > maxErrorBodyPreview {
			raw = raw[:maxErrorBodyPreview]
		}
		return "", &resilience.StatusError{Service: c.provider, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", eris.Wrapf(err, "llm: %s decode response", c.provider)
	}
	if out.Error != nil {
		return "", eris.Errorf("llm: %s api error: %s", c.provider, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", eris.Errorf("llm: %s returned no choices", c.provider)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
