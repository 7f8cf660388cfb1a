// Package ai implements the optional report summarizer on top of external
// LLM HTTP APIs. Providers register themselves in a factory table; the
// application selects one by name from configuration.
package ai

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/ports"
)

// Settings carries the provider-independent connection parameters.
type Settings struct {
	Endpoint string
	APIKey   string
	Model    string
	Client   *http.Client
}

type factory func(Settings) ports.Summarizer

var providers = map[string]factory{
	"openai":    newOpenAI,
	"anthropic": newAnthropic,
	"ollama":    newOllama,
}

// New builds the summarizer named by provider. An empty provider name means
// no AI is configured and returns (nil, nil); callers treat a nil summarizer
// as absent.
func New(provider string, settings Settings) (ports.Summarizer, error) {
	if provider == "" {
		return nil, nil
	}

	build, ok := providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: unknown ai provider %q (have %v)", domain.ErrSummarizerUnavailable, provider, Providers())
	}

	if settings.Client == nil {
		settings.Client = &http.Client{Timeout: 90 * time.Second}
	}

	return build(settings), nil
}

// Providers lists the registered provider names.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const systemPrompt = "You analyze business opportunity digests for independent software developers. " +
	"Answer in concise markdown: recurring problems, concrete product ideas, items worth follow-up."
