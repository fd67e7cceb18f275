// Package llm wraps the OpenRouter chat-completions API used for intent
// classification and natural-language query translation.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/fintrack/assistant-service/internal/config"
)

// Classification is the structured payload the classifier must return. Any
// response that does not decode into this shape, or that carries an empty
// intent, is treated as a classification failure.
type Classification struct {
	Intent      string  `json:"intent"`
	Transaction bool    `json:"transaction"`
	Amount      float64 `json:"amount,omitempty"`
	OldAmount   float64 `json:"old_amount,omitempty"`
	NewAmount   float64 `json:"new_amount,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Type        string  `json:"type,omitempty"`
	Message     string  `json:"message,omitempty"`
}

// Client talks to an OpenAI-compatible completions endpoint
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	log     *logrus.Logger
}

// NewClient initializes a client against the configured OpenRouter endpoint
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	apiCfg := openai.DefaultConfig(cfg.OpenRouterAPIKey)
	apiCfg.BaseURL = cfg.OpenRouterURL
	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   cfg.LLMModel,
		timeout: cfg.LLMTimeout,
		log:     log,
	}
}

// Complete sends a single-message completion request and returns the raw
// response content. The call is bounded by the configured timeout.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Classify asks the model for an intent classification and decodes the JSON
// payload. Parse failures are logged and returned as errors; the caller
// falls back to pattern matching.
func (c *Client) Classify(ctx context.Context, prompt string) (*Classification, error) {
	content, err := c.Complete(ctx, prompt, 0.5)
	if err != nil {
		return nil, err
	}

	var result Classification
	if err := json.Unmarshal([]byte(ExtractJSON(content)), &result); err != nil {
		c.log.Warnf("Failed to parse classification response: %v", err)
		return nil, fmt.Errorf("parsing classification: %w", err)
	}
	if result.Intent == "" {
		c.log.Warn("Classification response missing intent")
		return nil, fmt.Errorf("classification missing intent")
	}
	return &result, nil
}

// ExtractJSON strips markdown code fences the model may wrap around a JSON
// payload.
func ExtractJSON(content string) string {
	if i := strings.Index(content, "```json"); i >= 0 {
		content = content[i+len("```json"):]
		if j := strings.Index(content, "```"); j >= 0 {
			content = content[:j]
		}
	} else if i := strings.Index(content, "```"); i >= 0 {
		content = content[i+len("```"):]
		if j := strings.Index(content, "```"); j >= 0 {
			content = content[:j]
		}
	}
	return strings.TrimSpace(content)
}
