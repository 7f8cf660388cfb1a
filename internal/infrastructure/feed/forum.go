package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/scanner"
)

// ForumAdapter scrapes thread listings from forum index pages for sources
// of type "forum". It walks list entries and extracts the first link of
// each as the thread.
type ForumAdapter struct {
	client       *http.Client
	itemSelector string
}

var _ scanner.Adapter = (*ForumAdapter)(nil)

// NewForumAdapter wires an HTTP client; nil gets a 30s-timeout default.
func NewForumAdapter(client *http.Client) *ForumAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &ForumAdapter{
		client: client,
		// Covers the common listing markups: classic list forums, table
		// boards, and div-based thread indexes.
		itemSelector: "li, tr.topic, div.thread, article",
	}
}

// Type identifies the adapter inside the registry.
func (a *ForumAdapter) Type() string {
	return "forum"
}

// Fetch downloads the listing page and extracts one item per thread entry.
// Entries without a usable link or title are skipped.
func (a *ForumAdapter) Fetch(ctx context.Context, src domain.Source) ([]domain.RawItem, error) {
	if src.URL == "" {
		return nil, fmt.Errorf("forum source %q has no url", src.Name)
	}

	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid forum url %s: %w", src.URL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forum returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	seen := map[string]struct{}{}
	var items []domain.RawItem

	doc.Find(a.itemSelector).Each(func(_ int, entry *goquery.Selection) {
		item, ok := parseThreadEntry(entry, base, src)
		if !ok {
			return
		}
		if _, dup := seen[item.ExternalID]; dup {
			return
		}
		seen[item.ExternalID] = struct{}{}
		items = append(items, item)
	})

	return items, nil
}

func parseThreadEntry(entry *goquery.Selection, base *url.URL, src domain.Source) (domain.RawItem, bool) {
	link := entry.Find("a[href]").First()
	href, exists := link.Attr("href")
	if !exists || href == "" || strings.HasPrefix(href, "#") {
		return domain.RawItem{}, false
	}

	title := strings.TrimSpace(link.Text())
	if title == "" {
		return domain.RawItem{}, false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return domain.RawItem{}, false
	}
	threadURL := base.ResolveReference(ref).String()

	body := strings.TrimSpace(entry.Text())
	body = strings.TrimSpace(strings.TrimPrefix(body, title))

	return domain.RawItem{
		SourceID:    src.ID,
		ExternalID:  threadURL,
		Title:       title,
		Body:        truncate(collapseWhitespace(body), 500),
		URL:         threadURL,
		PublishedAt: time.Now().UTC(),
	}, true
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
