package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/wolf-eval/internal/model"
	"github.com/sells-group/wolf-eval/internal/resilience"
)

// DefaultGeminiModel is used when no model is configured for Gemini.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiCaller calls the Gemini API through the genai SDK.
type GeminiCaller struct {
	client *genai.Client
	s      Settings
}

// NewGemini creates a Caller for the Gemini API.
func NewGemini(ctx context.Context, apiKey string, s Settings) (*GeminiCaller, error) {
	s = s.withDefaults(DefaultGeminiModel, "")

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: s.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "llm: gemini client")
	}
	return &GeminiCaller{client: client, s: s}, nil
}

// Name implements Caller.
func (c *GeminiCaller) Name() string { return "gemini:" + c.s.Model }

// Generate implements Caller.
func (c *GeminiCaller) Generate(ctx context.Context, msgs []model.PromptMessage) (string, error) {
	system, rest := splitSystem(msgs)

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(c.s.Temperature)),
		MaxOutputTokens: int32(c.s.MaxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	contents := make([]*genai.Content, len(rest))
	for i, m := range rest {
		role := genai.Role(genai.RoleUser)
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents[i] = genai.NewContentFromText(m.Content, role)
	}

	ctx, cancel := context.WithTimeout(ctx, c.s.Timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.s.Model, contents, cfg)
	if err != nil {
		if se := geminiStatus(err); se != nil {
			return "", se
		}
		return "", eris.Wrap(err, "llm: gemini generate")
	}
	return strings.TrimSpace(resp.Text()), nil
}

// geminiStatus converts a genai API error, by value or pointer, into a
// StatusError.
func geminiStatus(err error) *resilience.StatusError {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch v := any(e).(type) {
		case genai.APIError:
			return &resilience.StatusError{Service: "gemini", StatusCode: v.Code, Body: v.Message}
		case *genai.APIError:
			return &resilience.StatusError{Service: "gemini", StatusCode: v.Code, Body: v.Message}
		}
	}
	return nil
}
