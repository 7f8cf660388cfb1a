package fetcher

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/infrastructure/storage"
	"OpportunityRadar/internal/scanner"
	"OpportunityRadar/internal/scoring"
)

// stubAdapter serves canned items keyed by source name.
type stubAdapter struct {
	kind  string
	items map[string][]domain.RawItem
	errs  map[string]error
}

func (a *stubAdapter) Type() string { return a.kind }

func (a *stubAdapter) Fetch(_ context.Context, src domain.Source) ([]domain.RawItem, error) {
	if err := a.errs[src.Name]; err != nil {
		return nil, err
	}
	return a.items[src.Name], nil
}

type testEnv struct {
	manager       *Manager
	sources       *storage.SourceRepository
	opportunities *storage.OpportunityRepository
}

func newTestEnv(t *testing.T, adapter *stubAdapter) testEnv {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "radar.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	adapters := scanner.NewRegistry()
	adapters.Register(adapter)

	sources := storage.NewSourceRepository(db.DB)
	opportunities := storage.NewOpportunityRepository(db.DB)

	manager := NewManager(Deps{
		Sources:       sources,
		Opportunities: opportunities,
		Adapters:      adapters,
		Scorer:        scoring.New(scoring.DefaultRules()),
		Concurrency:   2,
	})

	return testEnv{manager: manager, sources: sources, opportunities: opportunities}
}

func addSource(t *testing.T, env testEnv, kind, name string) domain.Source {
	t.Helper()

	src := domain.Source{Type: kind, Name: name, URL: "https://" + name + ".example", Enabled: true}
	if err := env.sources.Create(context.Background(), &src); err != nil {
		t.Fatalf("create source %s: %v", name, err)
	}
	return src
}

func TestFetchAllInsertsAndDeduplicates(t *testing.T) {
	t.Parallel()

	adapter := &stubAdapter{
		kind: "rss",
		items: map[string][]domain.RawItem{
			"alpha": {
				{ExternalID: "a-1", Title: "Looking for a tool to automate invoices", Body: "willing to pay for a solution", URL: "https://alpha.example/1", PublishedAt: time.Now()},
				{ExternalID: "a-2", Title: "Show HN: my side project", Body: "built this for indie hackers", URL: "https://alpha.example/2", PublishedAt: time.Now()},
			},
		},
	}
	env := newTestEnv(t, adapter)
	addSource(t, env, "rss", "alpha")

	ctx := context.Background()
	first := env.manager.FetchAll(ctx)
	if first.Failed != 0 || first.Succeeded != 1 {
		t.Fatalf("unexpected first run summary: %+v", first)
	}
	if first.Inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", first.Inserted)
	}

	// The same batch again must be fully deduplicated.
	second := env.manager.FetchAll(ctx)
	if second.Inserted != 0 || second.Duplicate != 2 {
		t.Fatalf("expected pure duplicates on rerun, got %+v", second)
	}

	stored, err := env.opportunities.Query(ctx, domain.OpportunityFilter{})
	if err != nil {
		t.Fatalf("query opportunities: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored opportunities, got %d", len(stored))
	}
	for _, opp := range stored {
		if opp.Score <= 0 {
			t.Fatalf("expected positive score for %q, got %d", opp.Title, opp.Score)
		}
		if opp.DetectedAt.IsZero() {
			t.Fatalf("expected detected_at to be set for %q", opp.Title)
		}
	}
}

func TestFetchAllToleratesSourceFailure(t *testing.T) {
	t.Parallel()

	adapter := &stubAdapter{
		kind: "rss",
		items: map[string][]domain.RawItem{
			"healthy": {{ExternalID: "h-1", Title: "Need help with billing", URL: "https://healthy.example/1"}},
		},
		errs: map[string]error{"broken": errors.New("connection refused")},
	}
	env := newTestEnv(t, adapter)
	addSource(t, env, "rss", "healthy")
	addSource(t, env, "rss", "broken")

	summary := env.manager.FetchAll(context.Background())

	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Fatalf("expected one success and one failure, got %+v", summary)
	}
	if summary.Inserted != 1 {
		t.Fatalf("expected healthy source items inserted, got %d", summary.Inserted)
	}
	if len(summary.Errors) != 1 || !strings.Contains(summary.Errors[0], "broken") {
		t.Fatalf("expected error attributed to broken source, got %v", summary.Errors)
	}
	if summary.Status() != "partial" {
		t.Fatalf("expected partial status, got %s", summary.Status())
	}
}

func TestFetchAllSkipsDisabledSources(t *testing.T) {
	t.Parallel()

	adapter := &stubAdapter{
		kind: "rss",
		items: map[string][]domain.RawItem{
			"off": {{ExternalID: "o-1", Title: "should not appear", URL: "https://off.example/1"}},
		},
	}
	env := newTestEnv(t, adapter)
	src := addSource(t, env, "rss", "off")

	ctx := context.Background()
	if err := env.sources.SetEnabled(ctx, src.ID, false); err != nil {
		t.Fatalf("disable source: %v", err)
	}

	summary := env.manager.FetchAll(ctx)
	if summary.Sources != 0 {
		t.Fatalf("expected no sources in batch, got %d", summary.Sources)
	}
	if summary.Status() != "ok" {
		t.Fatalf("expected ok status for empty batch, got %s", summary.Status())
	}
}

func TestSummaryStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		summary Summary
		want    string
	}{
		{"all ok", Summary{Sources: 3, Succeeded: 3}, "ok"},
		{"all failed", Summary{Sources: 2, Failed: 2}, "failed"},
		{"mixed", Summary{Sources: 2, Succeeded: 1, Failed: 1}, "partial"},
		{"empty", Summary{}, "ok"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.summary.Status(); got != tc.want {
				t.Fatalf("Status() = %s, want %s", got, tc.want)
			}
		})
	}
}
