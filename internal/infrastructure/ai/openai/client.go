// Package openai is the OpenAI-compatible chat-completions adapter for
// the generation provider port. It also speaks to any API with the same
// wire shape, such as a local Ollama endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hearthplan/v1/internal/infrastructure/config"
	"github.com/hearthplan/v1/internal/ports/outbound"
)

// Client implements outbound.TextGenerator against a chat-completions
// endpoint. The HTTP client carries no timeout of its own; the caller's
// context bounds every request.
type Client struct {
	cfg    config.AIConfig
	client *http.Client
	logger *zap.Logger
}

// NewClient creates the provider client.
func NewClient(cfg config.AIConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{},
		logger: logger.Named("openai"),
	}
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []choice `json:"choices"`
	Usage   usage    `json:"usage"`
}

type choice struct {
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Generate sends the prompt and parses the model's JSON recipe payload.
// Errors are wrapped with the provider sentinel matching their class so
// the orchestrator can categorize without inspecting transport details.
func (c *Client) Generate(ctx context.Context, prompt outbound.GenerationPrompt) (*outbound.ProviderRecipe, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key not configured", outbound.ErrProviderConfig)
	}

	reqBody := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		// Deadline and cancellation pass through untouched so the
		// orchestrator can tell a timeout from an outage.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", outbound.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", outbound.ErrProviderUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", outbound.ErrProviderQuota, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", outbound.ErrProviderConfig, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", outbound.ErrProviderUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", outbound.ErrProviderBadResponse, resp.StatusCode)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling completion: %v", outbound.ErrProviderBadResponse, err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", outbound.ErrProviderBadResponse)
	}

	payload, err := parseRecipePayload(chatResp.Choices[0].Message.Content)
	if err != nil {
		c.logger.Warn("Unusable model payload",
			zap.String("finish_reason", chatResp.Choices[0].FinishReason),
			zap.Error(err),
		)
		return nil, err
	}

	payload.TokensUsed = chatResp.Usage.TotalTokens

	c.logger.Debug("Provider call completed",
		zap.Int("prompt_tokens", chatResp.Usage.PromptTokens),
		zap.Int("completion_tokens", chatResp.Usage.CompletionTokens),
		zap.Int("total_tokens", chatResp.Usage.TotalTokens),
	)

	return payload, nil
}

// parseRecipePayload extracts and validates the JSON object from the
// model's reply. Models sometimes wrap the object in markdown fences or
// commentary, so parsing starts at the first brace and ends at the last.
func parseRecipePayload(content string) (*outbound.ProviderRecipe, error) {
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in reply", outbound.ErrProviderBadResponse)
	}

	var payload outbound.ProviderRecipe
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", outbound.ErrProviderBadResponse, err)
	}

	if payload.Title == "" || len(payload.Ingredients) == 0 || len(payload.Instructions) == 0 {
		return nil, fmt.Errorf("%w: payload missing title, ingredients, or instructions", outbound.ErrProviderBadResponse)
	}

	return &payload, nil
}
