package safety

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.0-flash"
	defaultTimeout = 15 * time.Second
)

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GeminiClassifier talks to the Google Gemini generateContent API. The zero
// credential case is valid: Configured reports false and the checker skips
// the call entirely.
type GeminiClassifier struct {
	client *resty.Client
	apiKey string
	model  string
}

type GeminiOption func(*GeminiClassifier)

// WithBaseURL overrides the API endpoint, used by tests to point at a stub server.
func WithBaseURL(baseURL string) GeminiOption {
	return func(c *GeminiClassifier) {
		c.client.SetBaseURL(baseURL)
	}
}

func WithModel(model string) GeminiOption {
	return func(c *GeminiClassifier) {
		c.model = model
	}
}

// WithTimeout bounds a single classification call so a hung classifier
// can't hold resources indefinitely.
func WithTimeout(d time.Duration) GeminiOption {
	return func(c *GeminiClassifier) {
		c.client.SetTimeout(d)
	}
}

func NewGeminiClassifier(apiKey string, opts ...GeminiOption) *GeminiClassifier {
	c := &GeminiClassifier{
		client: resty.New().
			SetBaseURL(defaultBaseURL).
			SetTimeout(defaultTimeout),
		apiKey: apiKey,
		model:  defaultModel,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Configured reports whether an API key is present.
func (c *GeminiClassifier) Configured() bool {
	return c.apiKey != ""
}

// Classify sends the prompt to the model and returns the raw text of the
// first candidate.
func (c *GeminiClassifier) Classify(ctx context.Context, prompt string) (string, error) {
	const op = "safety.GeminiClassifier.Classify"

	body := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}

	var result geminiResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", c.apiKey).
		SetBody(body).
		SetResult(&result).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.model))
	if err != nil {
		return "", fmt.Errorf("%s: request failed: %w", op, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%s: unexpected status %s", op, resp.Status())
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%s: empty response from classifier", op)
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}
