package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/scanner"
)

const (
	hnDefaultAPI = "https://hn.algolia.com/api/v1/search_by_date"
	hnItemURL    = "https://news.ycombinator.com/item?id="
)

// opportunityQueries are the search phrases run against the Algolia index.
// Each one targets a demand or pain-point formulation.
var opportunityQueries = []string{
	"I wish",
	"looking for",
	"frustrated with",
	"problem with",
	"alternative to",
	"would pay for",
	"recommend a",
	"is there a",
	"someone should build",
	"Show HN",
	"Ask HN",
}

// HackerNewsAdapter fetches recent stories from the Algolia HN search API.
type HackerNewsAdapter struct {
	client  *http.Client
	baseURL string
	window  time.Duration
}

var _ scanner.Adapter = (*HackerNewsAdapter)(nil)

type hnSearchResponse struct {
	Hits []hnHit `json:"hits"`
}

type hnHit struct {
	ObjectID  string `json:"objectID"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	StoryText string `json:"story_text"`
	CreatedAt string `json:"created_at"`
}

// NewHackerNewsAdapter wires an HTTP client and optional API base override.
func NewHackerNewsAdapter(client *http.Client, baseURL string) *HackerNewsAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = hnDefaultAPI
	}
	return &HackerNewsAdapter{client: client, baseURL: baseURL, window: 24 * time.Hour}
}

// Type identifies the adapter inside the registry.
func (a *HackerNewsAdapter) Type() string {
	return "hackernews"
}

// Fetch runs every opportunity query against the search API and merges the
// hits. A failing query is skipped; only all queries failing errors out.
func (a *HackerNewsAdapter) Fetch(ctx context.Context, src domain.Source) ([]domain.RawItem, error) {
	seen := map[string]struct{}{}
	var items []domain.RawItem
	var lastErr error
	failed := 0

	for _, query := range opportunityQueries {
		hits, err := a.search(ctx, query)
		if err != nil {
			failed++
			lastErr = err
			continue
		}

		for _, hit := range hits {
			if hit.ObjectID == "" || hit.Title == "" {
				continue
			}
			if _, ok := seen[hit.ObjectID]; ok {
				continue
			}
			seen[hit.ObjectID] = struct{}{}
			items = append(items, a.hitToItem(hit, src))
		}
	}

	if failed == len(opportunityQueries) {
		return nil, fmt.Errorf("all hackernews queries failed: %w", lastErr)
	}

	return items, nil
}

func (a *HackerNewsAdapter) search(ctx context.Context, query string) ([]hnHit, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("tags", "story")
	params.Set("hitsPerPage", "20")
	params.Set("numericFilters", "created_at_i>"+strconv.FormatInt(time.Now().Add(-a.window).Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search %q returned %s", query, resp.Status)
	}

	var result hnSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	return result.Hits, nil
}

func (a *HackerNewsAdapter) hitToItem(hit hnHit, src domain.Source) domain.RawItem {
	body := hit.StoryText
	if body == "" {
		body = hit.URL
	}

	publishedAt, err := time.Parse(time.RFC3339, hit.CreatedAt)
	if err != nil {
		publishedAt = time.Now().UTC()
	}

	return domain.RawItem{
		SourceID:    src.ID,
		ExternalID:  hit.ObjectID,
		Title:       hit.Title,
		Body:        truncate(body, 500),
		URL:         hnItemURL + hit.ObjectID,
		PublishedAt: publishedAt,
	}
}
