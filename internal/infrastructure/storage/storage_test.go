package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"OpportunityRadar/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "radar.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestMigrateIdempotent(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate run: %v", err)
	}

	var version int
	if err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if version != len(migrations) {
		t.Fatalf("expected version %d, got %d", len(migrations), version)
	}
}

func TestSourceLifecycle(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	repo := NewSourceRepository(db.DB)
	ctx := context.Background()

	src := &domain.Source{Type: "rss", Name: "HN", URL: "https://news.ycombinator.com/rss", Enabled: true}
	if err := repo.Create(ctx, src); err != nil {
		t.Fatalf("create source: %v", err)
	}
	if src.ID == 0 {
		t.Fatal("expected assigned id")
	}

	got, err := repo.ByID(ctx, src.ID)
	if err != nil {
		t.Fatalf("get source: %v", err)
	}
	if got.Name != "HN" || !got.Enabled || got.IsBuiltin {
		t.Fatalf("unexpected source: %+v", got)
	}

	if err := repo.SetEnabled(ctx, src.ID, false); err != nil {
		t.Fatalf("disable source: %v", err)
	}

	enabled, err := repo.Enabled(ctx)
	if err != nil {
		t.Fatalf("enabled sources: %v", err)
	}
	if len(enabled) != 0 {
		t.Fatalf("expected no enabled sources, got %d", len(enabled))
	}

	count, err := repo.CountByType(ctx, "rss")
	if err != nil {
		t.Fatalf("count by type: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 rss source, got %d", count)
	}

	if err := repo.Delete(ctx, src.ID); err != nil {
		t.Fatalf("delete source: %v", err)
	}
	if _, err := repo.ByID(ctx, src.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeleteBuiltinIsNoop(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	repo := NewSourceRepository(db.DB)
	ctx := context.Background()

	src := &domain.Source{Type: "hackernews", Name: "Hacker News", Enabled: true, IsBuiltin: true}
	if err := repo.Create(ctx, src); err != nil {
		t.Fatalf("create source: %v", err)
	}

	if err := repo.Delete(ctx, src.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected builtin delete to match nothing, got %v", err)
	}

	if _, err := repo.ByID(ctx, src.ID); err != nil {
		t.Fatalf("builtin source should still exist: %v", err)
	}
}

func TestInsertOpportunityDeduplicates(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	repo := NewOpportunityRepository(db.DB)
	ctx := context.Background()

	opp := &domain.Opportunity{
		Title:      "First sighting",
		SourceType: "hackernews",
		SourceURL:  "https://news.ycombinator.com/item?id=1",
		ExternalID: "1",
		Score:      40,
		Signals:    []string{"technical"},
	}

	inserted, err := repo.Insert(ctx, opp)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if !inserted {
		t.Fatal("expected first insert to create a row")
	}

	dup := &domain.Opportunity{
		Title:      "Re-fetched with different title",
		SourceType: "hackernews",
		SourceURL:  "https://news.ycombinator.com/item?id=1",
		ExternalID: "1",
		Score:      90,
	}
	inserted, err = repo.Insert(ctx, dup)
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Fatal("expected duplicate insert to be ignored")
	}

	got, err := repo.ByID(ctx, opp.ID)
	if err != nil {
		t.Fatalf("get opportunity: %v", err)
	}
	if got.Title != "First sighting" || got.Score != 40 {
		t.Fatalf("first sighting was overwritten: %+v", got)
	}
}

func TestQueryFilterAndOrder(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	repo := NewOpportunityRepository(db.DB)
	ctx := context.Background()

	base := time.Now().UTC().Add(-3 * time.Hour)
	seed := []domain.Opportunity{
		{Title: "old low", SourceType: "rss", ExternalID: "a", Score: 10, DetectedAt: base},
		{Title: "mid", SourceType: "hackernews", ExternalID: "b", Score: 50, DetectedAt: base.Add(time.Hour)},
		{Title: "new high", SourceType: "rss", ExternalID: "c", Score: 90, DetectedAt: base.Add(2 * time.Hour)},
	}
	for i := range seed {
		if _, err := repo.Insert(ctx, &seed[i]); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}

	all, err := repo.Query(ctx, domain.OpportunityFilter{})
	if err != nil {
		t.Fatalf("query all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}
	if all[0].Title != "new high" || all[2].Title != "old low" {
		t.Fatalf("expected detected_at descending order, got %v, %v, %v", all[0].Title, all[1].Title, all[2].Title)
	}

	rssOnly, err := repo.Query(ctx, domain.OpportunityFilter{SourceType: "rss"})
	if err != nil {
		t.Fatalf("query rss: %v", err)
	}
	if len(rssOnly) != 2 {
		t.Fatalf("expected 2 rss rows, got %d", len(rssOnly))
	}

	highScore, err := repo.Query(ctx, domain.OpportunityFilter{MinScore: 50})
	if err != nil {
		t.Fatalf("query min_score: %v", err)
	}
	if len(highScore) != 2 {
		t.Fatalf("expected 2 rows with score >= 50, got %d", len(highScore))
	}

	paged, err := repo.Query(ctx, domain.OpportunityFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("query paged: %v", err)
	}
	if len(paged) != 1 || paged[0].Title != "mid" {
		t.Fatalf("unexpected page: %+v", paged)
	}
}

func TestStatsMatchesQueryCount(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	repo := NewOpportunityRepository(db.DB)
	ctx := context.Background()

	now := time.Now().UTC()
	seed := []domain.Opportunity{
		{Title: "a", SourceType: "rss", ExternalID: "a", Score: 20, DetectedAt: now.Add(-time.Hour)},
		{Title: "b", SourceType: "rss", ExternalID: "b", Score: 40, DetectedAt: now.Add(-2 * time.Hour)},
		{Title: "c", SourceType: "hackernews", ExternalID: "c", Score: 60, DetectedAt: now.Add(-48 * time.Hour)},
	}
	for i := range seed {
		if _, err := repo.Insert(ctx, &seed[i]); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	all, err := repo.Query(ctx, domain.OpportunityFilter{Limit: maxQueryLimit})
	if err != nil {
		t.Fatalf("query all: %v", err)
	}

	if stats.Total != len(all) {
		t.Fatalf("stats.Total %d != query count %d", stats.Total, len(all))
	}
	if stats.BySource["rss"] != 2 || stats.BySource["hackernews"] != 1 {
		t.Fatalf("unexpected by_source: %v", stats.BySource)
	}
	if stats.Today != 2 {
		t.Fatalf("expected 2 detected in trailing 24h, got %d", stats.Today)
	}
	if stats.AverageScore != 40 {
		t.Fatalf("expected average score 40, got %v", stats.AverageScore)
	}
}

func TestDetectedBetweenWindow(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	repo := NewOpportunityRepository(db.DB)
	ctx := context.Background()

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	seed := []domain.Opportunity{
		{Title: "before", SourceType: "rss", ExternalID: "before", DetectedAt: start.Add(-time.Minute)},
		{Title: "at start", SourceType: "rss", ExternalID: "at-start", Score: 10, DetectedAt: start},
		{Title: "inside", SourceType: "rss", ExternalID: "inside", Score: 80, DetectedAt: start.AddDate(0, 0, 3)},
		{Title: "at end", SourceType: "rss", ExternalID: "at-end", DetectedAt: end},
	}
	for i := range seed {
		if _, err := repo.Insert(ctx, &seed[i]); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}

	window, err := repo.DetectedBetween(ctx, start, end)
	if err != nil {
		t.Fatalf("detected between: %v", err)
	}
	if len(window) != 2 {
		t.Fatalf("expected half-open window [start, end) with 2 rows, got %d", len(window))
	}
	if window[0].Title != "inside" {
		t.Fatalf("expected score descending order, got %s first", window[0].Title)
	}
}

func TestReportRoundTrip(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	repo := NewReportRepository(db.DB)
	ctx := context.Background()

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	rep := &domain.Report{
		PeriodStart:      start,
		PeriodEnd:        start.AddDate(0, 0, 7),
		OpportunityCount: 3,
		ContentHuman:     "# Digest",
		ContentPrompt:    "analyze this",
	}
	if err := repo.Insert(ctx, rep); err != nil {
		t.Fatalf("insert report: %v", err)
	}

	got, err := repo.ByID(ctx, rep.ID)
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if got.OpportunityCount != 3 || got.ContentHuman != "# Digest" {
		t.Fatalf("unexpected report: %+v", got)
	}
	if got.AIAnalysis != "" || got.Summary != "" {
		t.Fatalf("expected empty AI fields, got %+v", got)
	}

	recent, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent reports: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 report, got %d", len(recent))
	}

	if _, err := repo.ByID(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
