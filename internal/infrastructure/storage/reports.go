package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/ports"
)

// ReportRepository persists generated reports in SQLite. Reports are
// append-only; regeneration inserts a new row.
type ReportRepository struct {
	db *sql.DB
}

var _ ports.ReportStore = (*ReportRepository)(nil)

// NewReportRepository wires a sql.DB implementation.
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

var reportColumns = []string{
	"id", "period_start", "period_end", "opportunity_count", "content_human",
	"content_prompt", "summary", "ai_analysis", "generated_at", "created_at",
}

// Insert stores a report row and fills in its assigned id and timestamps.
func (r *ReportRepository) Insert(ctx context.Context, rep *domain.Report) error {
	now := time.Now().UTC()
	if rep.GeneratedAt.IsZero() {
		rep.GeneratedAt = now
	}

	query, args, err := sq.Insert("reports").
		Columns("period_start", "period_end", "opportunity_count", "content_human",
			"content_prompt", "summary", "ai_analysis", "generated_at", "created_at").
		Values(rep.PeriodStart.UTC(), rep.PeriodEnd.UTC(), rep.OpportunityCount,
			rep.ContentHuman, rep.ContentPrompt, rep.Summary, rep.AIAnalysis,
			rep.GeneratedAt.UTC(), now).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	rep.ID = id
	rep.CreatedAt = now
	return nil
}

// ByID returns a single report or domain.ErrNotFound.
func (r *ReportRepository) ByID(ctx context.Context, id int64) (domain.Report, error) {
	query, args, err := sq.Select(reportColumns...).
		From("reports").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Report{}, fmt.Errorf("build query: %w", err)
	}

	rep, err := scanReport(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Report{}, fmt.Errorf("report %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Report{}, fmt.Errorf("get report: %w", err)
	}

	return rep, nil
}

// Recent returns the most recently created reports.
func (r *ReportRepository) Recent(ctx context.Context, limit int) ([]domain.Report, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := sq.Select(reportColumns...).
		From("reports").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, rep)
	}

	return reports, rows.Err()
}

func scanReport(row rowScanner) (domain.Report, error) {
	var rep domain.Report
	var contentHuman, contentPrompt, summary, aiAnalysis sql.NullString

	err := row.Scan(&rep.ID, &rep.PeriodStart, &rep.PeriodEnd, &rep.OpportunityCount,
		&contentHuman, &contentPrompt, &summary, &aiAnalysis, &rep.GeneratedAt, &rep.CreatedAt)
	if err != nil {
		return domain.Report{}, err
	}

	rep.ContentHuman = contentHuman.String
	rep.ContentPrompt = contentPrompt.String
	rep.Summary = summary.String
	rep.AIAnalysis = aiAnalysis.String

	return rep, nil
}
