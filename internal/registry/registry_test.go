package registry

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/infrastructure/feed"
	"OpportunityRadar/internal/infrastructure/storage"
	"OpportunityRadar/internal/scanner"
)

func newTestService(t *testing.T, plan domain.Plan) *Service {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "radar.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	adapters := scanner.NewRegistry()
	adapters.Register(feed.NewRSSAdapter(nil))
	adapters.Register(feed.NewHackerNewsAdapter(nil, ""))
	adapters.Register(feed.NewJobBoardAdapter(nil))
	adapters.Register(feed.NewForumAdapter(nil))

	return New(storage.NewSourceRepository(db.DB), adapters, plan, nil)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, domain.Plan{MaxRSSSources: 2})

	_, err := svc.Create(context.Background(), "carrier-pigeon", "Pigeons", "")
	if !errors.Is(err, domain.ErrInvalidSourceType) {
		t.Fatalf("expected ErrInvalidSourceType, got %v", err)
	}
}

func TestCreateEnforcesRSSQuota(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, domain.Plan{Pro: false, MaxRSSSources: 1})
	ctx := context.Background()

	first, err := svc.Create(ctx, "rss", "HN", "https://news.ycombinator.com/rss")
	if err != nil {
		t.Fatalf("first rss source: %v", err)
	}
	if !first.Enabled || first.IsBuiltin {
		t.Fatalf("expected enabled user source, got %+v", first)
	}

	_, err = svc.Create(ctx, "rss", "Lobsters", "https://lobste.rs/rss")
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	// Non-RSS types are not quota limited.
	if _, err := svc.Create(ctx, "forum", "indie forum", "https://forum.example/latest"); err != nil {
		t.Fatalf("forum source should not hit rss quota: %v", err)
	}
}

func TestProPlanHasNoRSSQuota(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, domain.Plan{Pro: true, MaxRSSSources: 1})
	ctx := context.Background()

	for i, url := range []string{"https://a.example/rss", "https://b.example/rss", "https://c.example/rss"} {
		if _, err := svc.Create(ctx, "rss", url, url); err != nil {
			t.Fatalf("pro rss source %d: %v", i, err)
		}
	}
}

func TestToggleAndDelete(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, domain.Plan{MaxRSSSources: 2})
	ctx := context.Background()

	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Seeding twice must not duplicate builtins.
	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	sources, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list sources: %v", err)
	}
	if len(sources) != len(builtinSources) {
		t.Fatalf("expected %d builtin sources, got %d", len(builtinSources), len(sources))
	}

	builtin := sources[0]
	toggled, err := svc.Toggle(ctx, builtin.ID)
	if err != nil {
		t.Fatalf("toggle builtin: %v", err)
	}
	if toggled.Enabled == builtin.Enabled {
		t.Fatal("expected enabled flag to flip")
	}

	if err := svc.Delete(ctx, builtin.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden deleting builtin, got %v", err)
	}

	user, err := svc.Create(ctx, "rss", "HN", "https://news.ycombinator.com/rss")
	if err != nil {
		t.Fatalf("create user source: %v", err)
	}
	if err := svc.Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete user source: %v", err)
	}
	if _, err := svc.Get(ctx, user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if err := svc.Delete(ctx, 424242); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestTypesReflectsPlan(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, domain.Plan{Pro: false, MaxRSSSources: 2})

	info := svc.Types()
	want := []string{"forum", "hackernews", "jobboard", "rss"}
	if !reflect.DeepEqual(info.Types, want) {
		t.Fatalf("unexpected types: %v", info.Types)
	}
	if info.IsPro {
		t.Fatal("expected non-pro plan")
	}
	if info.MaxRSS != 2 {
		t.Fatalf("expected max_rss 2, got %d", info.MaxRSS)
	}
}
