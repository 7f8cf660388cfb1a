package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/ports"
)

// DefaultWindow is the period a report covers when the caller does not name
// one.
const DefaultWindow = 7 * 24 * time.Hour

// Service builds, stores and serves opportunity digests. Reports are
// immutable: Generate always inserts a new row even for an identical window.
type Service struct {
	opportunities ports.OpportunityStore
	reports       ports.ReportStore
	summarizer    ports.Summarizer
	aiTimeout     time.Duration
	logger        *slog.Logger
}

// New constructs the report service. summarizer may be nil when no AI
// provider is configured.
func New(opportunities ports.OpportunityStore, reports ports.ReportStore, summarizer ports.Summarizer, aiTimeout time.Duration, logger *slog.Logger) *Service {
	if aiTimeout <= 0 {
		aiTimeout = 60 * time.Second
	}

	return &Service{
		opportunities: opportunities,
		reports:       reports,
		summarizer:    summarizer,
		aiTimeout:     aiTimeout,
		logger:        logger,
	}
}

// Generate builds a digest over [start, end), renders both artifacts, runs
// the optional AI step and persists the result. A zero window defaults to
// the trailing DefaultWindow ending now. AI failures degrade gracefully:
// the report is still stored, with a summary extracted from the rendered
// digest instead of the provider output.
func (s *Service) Generate(ctx context.Context, start, end time.Time) (domain.Report, error) {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = end.Add(-DefaultWindow)
	}
	if !start.Before(end) {
		return domain.Report{}, fmt.Errorf("report window start %s is not before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	opportunities, err := s.opportunities.DetectedBetween(ctx, start, end)
	if err != nil {
		return domain.Report{}, fmt.Errorf("select opportunities for report: %w", err)
	}

	rep := domain.Report{
		PeriodStart:      start,
		PeriodEnd:        end,
		OpportunityCount: len(opportunities),
		ContentHuman:     renderHuman(opportunities, start, end),
		ContentPrompt:    renderPrompt(opportunities, start, end),
		GeneratedAt:      time.Now().UTC(),
	}

	rep.Summary, rep.AIAnalysis = s.analyze(ctx, rep.ContentPrompt, rep.ContentHuman)

	if err := s.reports.Insert(ctx, &rep); err != nil {
		return domain.Report{}, fmt.Errorf("store report: %w", err)
	}

	s.info("report generated", "id", rep.ID, "opportunities", rep.OpportunityCount,
		"period_start", start, "period_end", end, "ai", rep.AIAnalysis != "")
	return rep, nil
}

// analyze runs the summarizer under its own timeout and falls back to an
// extract of the human digest when the provider is missing or failing.
func (s *Service) analyze(ctx context.Context, prompt, human string) (summary, analysis string) {
	fallback := firstParagraph(human, 500)

	if s.summarizer == nil || !s.summarizer.Available() {
		return fallback, ""
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	result, err := s.summarizer.Analyze(aiCtx, prompt)
	if err != nil {
		s.warn("ai analysis failed, keeping plain report", "provider", s.summarizer.Name(), "error", err)
		return fallback, ""
	}

	return firstParagraph(result, 500), result
}

// Import stores a report row built outside the service: the caller supplies
// the count and prompt artifact, the period defaults to the trailing
// DefaultWindow. Used by clients that render prompts externally.
func (s *Service) Import(ctx context.Context, opportunityCount int, contentPrompt string) (domain.Report, error) {
	if opportunityCount < 0 {
		return domain.Report{}, fmt.Errorf("opportunity count must not be negative")
	}

	now := time.Now().UTC()
	rep := domain.Report{
		PeriodStart:      now.Add(-DefaultWindow),
		PeriodEnd:        now,
		OpportunityCount: opportunityCount,
		ContentPrompt:    contentPrompt,
		GeneratedAt:      now,
	}

	if err := s.reports.Insert(ctx, &rep); err != nil {
		return domain.Report{}, fmt.Errorf("store imported report: %w", err)
	}

	s.info("report imported", "id", rep.ID, "opportunities", rep.OpportunityCount)
	return rep, nil
}

// Get returns one stored report by id.
func (s *Service) Get(ctx context.Context, id int64) (domain.Report, error) {
	return s.reports.ByID(ctx, id)
}

// GetContent returns a single rendered artifact of a report. kind is either
// "human" or "prompt".
func (s *Service) GetContent(ctx context.Context, id int64, kind string) (string, error) {
	rep, err := s.reports.ByID(ctx, id)
	if err != nil {
		return "", err
	}

	switch kind {
	case "human":
		return rep.ContentHuman, nil
	case "prompt":
		return rep.ContentPrompt, nil
	default:
		return "", fmt.Errorf("unknown report content kind %q", kind)
	}
}

// List returns the most recent reports, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Report, error) {
	return s.reports.Recent(ctx, limit)
}

// SummarizerStatus reports whether an AI provider is wired and reachable.
func (s *Service) SummarizerStatus() (name string, available bool) {
	if s.summarizer == nil {
		return "", false
	}
	return s.summarizer.Name(), s.summarizer.Available()
}

// Analyze runs an ad-hoc prompt through the configured summarizer.
func (s *Service) Analyze(ctx context.Context, prompt string) (string, error) {
	if s.summarizer == nil || !s.summarizer.Available() {
		return "", domain.ErrSummarizerUnavailable
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	result, err := s.summarizer.Analyze(aiCtx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: provider timed out", domain.ErrSummarizerUnavailable)
		}
		return "", err
	}
	return result, nil
}

func (s *Service) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Service) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
