package feed

import (
	"context"
	"crypto/sha1"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/scanner"
)

// RSSAdapter fetches RSS/Atom feeds for sources of type "rss".
type RSSAdapter struct {
	client *http.Client
	parser *gofeed.Parser
}

var _ scanner.Adapter = (*RSSAdapter)(nil)

// NewRSSAdapter wires an HTTP client; nil gets a 30s-timeout default.
func NewRSSAdapter(client *http.Client) *RSSAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &RSSAdapter{client: client, parser: gofeed.NewParser()}
}

// Type identifies the adapter inside the registry.
func (a *RSSAdapter) Type() string {
	return "rss"
}

// Fetch downloads and parses the configured feed URL. Entries the parser
// cannot make sense of are skipped; only a dead feed fails the source.
func (a *RSSAdapter) Fetch(ctx context.Context, src domain.Source) ([]domain.RawItem, error) {
	if src.URL == "" {
		return nil, fmt.Errorf("rss source %q has no url", src.Name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	parsed, err := a.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]domain.RawItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil || (entry.Title == "" && entry.Link == "") {
			continue
		}
		items = append(items, a.entryToItem(entry, src))
	}

	return items, nil
}

func (a *RSSAdapter) entryToItem(entry *gofeed.Item, src domain.Source) domain.RawItem {
	externalID := entry.GUID
	if externalID == "" {
		externalID = entry.Link
	}
	if externalID == "" {
		sum := sha1.Sum([]byte(entry.Title + entry.Published))
		externalID = fmt.Sprintf("%x", sum)
	}

	body := entry.Description
	if body == "" {
		body = entry.Content
	}
	body = truncate(stripTags(body), 500)

	publishedAt := time.Now().UTC()
	if entry.PublishedParsed != nil {
		publishedAt = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		publishedAt = *entry.UpdatedParsed
	}

	return domain.RawItem{
		SourceID:    src.ID,
		ExternalID:  externalID,
		Title:       entry.Title,
		Body:        body,
		URL:         entry.Link,
		PublishedAt: publishedAt,
	}
}
