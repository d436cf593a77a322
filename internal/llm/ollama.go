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

// Local inference defaults.
const (
	DefaultOllamaEndpoint = "http://localhost:11434"
	DefaultOllamaModel    = "qwen2.5:0.5b-instruct"
)

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Raw     bool           `json:"raw"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// OllamaCaller runs generation on a local Ollama server. Chat messages are
// flattened into one raw prompt ending in "ASSISTANT:".
type OllamaCaller struct {
	s    Settings
	http *http.Client
}

// NewOllama creates a Caller for a local Ollama endpoint.
func NewOllama(s Settings) *OllamaCaller {
	s = s.withDefaults(DefaultOllamaModel, DefaultOllamaEndpoint)
	return &OllamaCaller{s: s, http: &http.Client{Timeout: s.Timeout}}
}

// Name implements Caller.
func (c *OllamaCaller) Name() string { return "ollama:" + c.s.Model }

// FlattenPrompt renders messages as "ROLE: content" lines followed by
// "ASSISTANT:".
func FlattenPrompt(msgs []model.PromptMessage) string {
	lines := make([]string, 0, len(msgs)+1)
	for _, m := range msgs {
		lines = append(lines, strings.ToUpper(m.Role)+": "+m.Content)
	}
	lines = append(lines, "ASSISTANT:")
	return strings.Join(lines, "\n")
}

// Generate implements Caller.
func (c *OllamaCaller) Generate(ctx context.Context, msgs []model.PromptMessage) (string, error) {
	payload, err := json.Marshal(ollamaRequest{
		Model:  c.s.Model,
		Prompt: FlattenPrompt(msgs),
		Raw:    true,
		Options: map[string]any{
			"temperature": c.s.Temperature,
			"num_predict": c.s.MaxTokens,
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: ollama marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.s.BaseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrap(err, "llm: ollama create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "llm: ollama request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyPreview))
		return "", &resilience.StatusError{Service: "ollama", StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", eris.Wrap(err, "llm: ollama decode response")
	}
	if out.Error != "" {
		return "", eris.Errorf("llm: ollama error: %s", out.Error)
	}
	return strings.TrimSpace(out.Response), nil
}
