package ports

import (
	"context"
	"time"

	"OpportunityRadar/internal/domain"
)

// SourceStore persists configured sources.
type SourceStore interface {
	All(ctx context.Context) ([]domain.Source, error)
	Enabled(ctx context.Context) ([]domain.Source, error)
	ByID(ctx context.Context, id int64) (domain.Source, error)
	Create(ctx context.Context, src *domain.Source) error
	SetEnabled(ctx context.Context, id int64, enabled bool) error
	Delete(ctx context.Context, id int64) error
	CountByType(ctx context.Context, sourceType string) (int, error)
	CountBuiltin(ctx context.Context) (int, error)
}

// OpportunityStore persists scored, deduplicated opportunities.
type OpportunityStore interface {
	// Insert adds an opportunity unless one with the same
	// (source_type, source_id_external) pair exists. It reports whether a
	// row was actually created.
	Insert(ctx context.Context, opp *domain.Opportunity) (bool, error)
	Query(ctx context.Context, filter domain.OpportunityFilter) ([]domain.Opportunity, error)
	ByID(ctx context.Context, id int64) (domain.Opportunity, error)
	Stats(ctx context.Context) (domain.Stats, error)
	DetectedBetween(ctx context.Context, start, end time.Time) ([]domain.Opportunity, error)
}

// ReportStore persists generated reports.
type ReportStore interface {
	Insert(ctx context.Context, rep *domain.Report) error
	ByID(ctx context.Context, id int64) (domain.Report, error)
	Recent(ctx context.Context, limit int) ([]domain.Report, error)
}

// Summarizer annotates report prompts through an external AI provider.
type Summarizer interface {
	Name() string
	Available() bool
	Analyze(ctx context.Context, prompt string) (string, error)
}
