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
	ollamaDefaultEndpoint = "http://localhost:11434/api/generate"
	ollamaDefaultModel    = "llama3.1"
)

// ollamaClient talks to a local Ollama server. No API key is involved, so
// the provider counts as available as soon as it is configured.
type ollamaClient struct {
	endpoint string
	model    string
	client   *http.Client
}

var _ ports.Summarizer = (*ollamaClient)(nil)

func newOllama(settings Settings) ports.Summarizer {
	c := &ollamaClient{
		endpoint: settings.Endpoint,
		model:    settings.Model,
		client:   settings.Client,
	}
	if c.endpoint == "" {
		c.endpoint = ollamaDefaultEndpoint
	}
	if c.model == "" {
		c.model = ollamaDefaultModel
	}
	return c
}

func (c *ollamaClient) Name() string { return "ollama" }

func (c *ollamaClient) Available() bool { return true }

type ollamaRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (c *ollamaClient) Analyze(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(ollamaRequest{
		Model:  c.model,
		System: systemPrompt,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ollama: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || parsed.Error != "" {
		if parsed.Error != "" {
			return "", fmt.Errorf("ollama: %s (status %d)", parsed.Error, resp.StatusCode)
		}
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	if parsed.Response == "" {
		return "", fmt.Errorf("ollama returned empty response")
	}

	return parsed.Response, nil
}
