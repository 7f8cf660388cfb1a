package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"OpportunityRadar/internal/ports"
)

const (
	openAIDefaultEndpoint = "https://api.openai.com/v1/chat/completions"
	openAIDefaultModel    = "gpt-4o-mini"
)

// openAIClient talks to the OpenAI chat completions API (and compatible
// servers via a custom endpoint).
type openAIClient struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

var _ ports.Summarizer = (*openAIClient)(nil)

func newOpenAI(settings Settings) ports.Summarizer {
	c := &openAIClient{
		endpoint: settings.Endpoint,
		apiKey:   settings.APIKey,
		model:    settings.Model,
		client:   settings.Client,
	}
	if c.endpoint == "" {
		c.endpoint = openAIDefaultEndpoint
	}
	if c.model == "" {
		c.model = openAIDefaultModel
	}
	return c
}

func (c *openAIClient) Name() string { return "openai" }

func (c *openAIClient) Available() bool { return c.apiKey != "" }

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *openAIClient) Analyze(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("openai: %s (status %d)", parsed.Error.Message, resp.StatusCode)
		}
		return "", fmt.Errorf("openai returned status %d", resp.StatusCode)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
