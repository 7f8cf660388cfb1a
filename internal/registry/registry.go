package registry

import (
	"context"
	"fmt"
	"log/slog"

	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/ports"
	"OpportunityRadar/internal/scanner"
)

// Service owns the configured sources: CRUD, toggling, plan quota checks,
// and seeding of builtin sources. The plan is an explicit value injected at
// construction.
type Service struct {
	store    ports.SourceStore
	adapters *scanner.Registry
	plan     domain.Plan
	logger   *slog.Logger
}

// TypesInfo reports which source kinds and quotas the current plan allows.
type TypesInfo struct {
	Types  []string `json:"types"`
	IsPro  bool     `json:"is_pro"`
	MaxRSS int      `json:"max_rss"`
}

// New wires the source store with the adapter registry and plan limits.
func New(store ports.SourceStore, adapters *scanner.Registry, plan domain.Plan, logger *slog.Logger) *Service {
	return &Service{store: store, adapters: adapters, plan: plan, logger: logger}
}

// builtinSources are seeded once into an empty registry.
var builtinSources = []domain.Source{
	{Type: "hackernews", Name: "Hacker News", Enabled: true, IsBuiltin: true},
	{Type: "jobboard", Name: "Remotive", Enabled: true, IsBuiltin: true},
}

// Seed creates the builtin sources when none exist yet.
func (s *Service) Seed(ctx context.Context) error {
	count, err := s.store.CountBuiltin(ctx)
	if err != nil {
		return fmt.Errorf("check builtin sources: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, builtin := range builtinSources {
		src := builtin
		if err := s.store.Create(ctx, &src); err != nil {
			return fmt.Errorf("seed source %s: %w", src.Name, err)
		}
		s.debug("seeded builtin source", "name", src.Name, "type", src.Type)
	}

	return nil
}

// Create registers a user-added source after validating its type and the
// plan quota for RSS feeds.
func (s *Service) Create(ctx context.Context, sourceType, name, url string) (domain.Source, error) {
	if _, err := s.adapters.Resolve(sourceType); err != nil {
		return domain.Source{}, err
	}

	if sourceType == "rss" {
		current, err := s.store.CountByType(ctx, "rss")
		if err != nil {
			return domain.Source{}, fmt.Errorf("count rss sources: %w", err)
		}
		if !s.plan.AllowsRSS(current) {
			return domain.Source{}, fmt.Errorf("%w: plan allows %d rss sources", domain.ErrQuotaExceeded, s.plan.MaxRSSSources)
		}
	}

	src := domain.Source{
		Type:    sourceType,
		Name:    name,
		URL:     url,
		Enabled: true,
	}
	if err := s.store.Create(ctx, &src); err != nil {
		return domain.Source{}, fmt.Errorf("create source: %w", err)
	}

	s.debug("source created", "id", src.ID, "type", src.Type, "name", src.Name)
	return src, nil
}

// List returns every configured source.
func (s *Service) List(ctx context.Context) ([]domain.Source, error) {
	return s.store.All(ctx)
}

// Get returns one source by id.
func (s *Service) Get(ctx context.Context, id int64) (domain.Source, error) {
	return s.store.ByID(ctx, id)
}

// Toggle flips the enabled flag. Builtin sources may be toggled, only
// deletion is restricted.
func (s *Service) Toggle(ctx context.Context, id int64) (domain.Source, error) {
	src, err := s.store.ByID(ctx, id)
	if err != nil {
		return domain.Source{}, err
	}

	if err := s.store.SetEnabled(ctx, id, !src.Enabled); err != nil {
		return domain.Source{}, err
	}

	src.Enabled = !src.Enabled
	s.debug("source toggled", "id", id, "enabled", src.Enabled)
	return src, nil
}

// Delete removes a user-added source. Builtin sources are protected.
func (s *Service) Delete(ctx context.Context, id int64) error {
	src, err := s.store.ByID(ctx, id)
	if err != nil {
		return err
	}

	if src.IsBuiltin {
		return fmt.Errorf("cannot delete builtin source %s: %w", src.Name, domain.ErrForbidden)
	}

	return s.store.Delete(ctx, id)
}

// Types reports the registered adapter types and plan limits. Pure
// configuration read, no mutation.
func (s *Service) Types() TypesInfo {
	return TypesInfo{
		Types:  s.adapters.Types(),
		IsPro:  s.plan.Pro,
		MaxRSS: s.plan.MaxRSSSources,
	}
}

func (s *Service) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
