package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/scanner"
)

const jobboardDefaultURL = "https://remotive.com/api/remote-jobs?limit=50"

// JobBoardAdapter fetches postings from a Remotive-compatible JSON API for
// sources of type "jobboard".
type JobBoardAdapter struct {
	client *http.Client
}

var _ scanner.Adapter = (*JobBoardAdapter)(nil)

type jobBoardResponse struct {
	Jobs []jobPosting `json:"jobs"`
}

type jobPosting struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	URL             string `json:"url"`
	CompanyName     string `json:"company_name"`
	PublicationDate string `json:"publication_date"`
}

// NewJobBoardAdapter wires an HTTP client; nil gets a 30s-timeout default.
func NewJobBoardAdapter(client *http.Client) *JobBoardAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &JobBoardAdapter{client: client}
}

// Type identifies the adapter inside the registry.
func (a *JobBoardAdapter) Type() string {
	return "jobboard"
}

// Fetch retrieves the posting list. Postings without an id or title are
// skipped rather than failing the batch.
func (a *JobBoardAdapter) Fetch(ctx context.Context, src domain.Source) ([]domain.RawItem, error) {
	apiURL := src.URL
	if apiURL == "" {
		apiURL = jobboardDefaultURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jobs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("job board returned %s", resp.Status)
	}

	var result jobBoardResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode job list: %w", err)
	}

	items := make([]domain.RawItem, 0, len(result.Jobs))
	for _, job := range result.Jobs {
		if job.ID == 0 || job.Title == "" {
			continue
		}

		publishedAt, err := time.Parse("2006-01-02T15:04:05", job.PublicationDate)
		if err != nil {
			publishedAt = time.Now().UTC()
		}

		title := job.Title
		if job.CompanyName != "" {
			title = fmt.Sprintf("%s at %s", job.Title, job.CompanyName)
		}

		items = append(items, domain.RawItem{
			SourceID:    src.ID,
			ExternalID:  strconv.FormatInt(job.ID, 10),
			Title:       title,
			Body:        truncate(stripTags(job.Description), 500),
			URL:         job.URL,
			PublishedAt: publishedAt,
		})
	}

	return items, nil
}
