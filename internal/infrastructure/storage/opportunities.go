package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"OpportunityRadar/internal/domain"
	"OpportunityRadar/internal/ports"
)

const (
	defaultQueryLimit = 50
	maxQueryLimit     = 1000
)

// OpportunityRepository persists scored opportunities in SQLite. The unique
// constraint on (source_type, source_id_external) makes inserts idempotent
// under concurrent fetches of the same external item.
type OpportunityRepository struct {
	db *sql.DB
}

var _ ports.OpportunityStore = (*OpportunityRepository)(nil)

// NewOpportunityRepository wires a sql.DB implementation.
func NewOpportunityRepository(db *sql.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

var opportunityColumns = []string{
	"id", "source_id", "title", "description", "source_type", "source_url",
	"source_id_external", "score", "signals", "detected_at", "created_at",
}

// Insert adds an opportunity unless the (source_type, source_id_external)
// pair exists. It reports whether a row was created; the first sighting is
// never overwritten by later fetches.
func (r *OpportunityRepository) Insert(ctx context.Context, opp *domain.Opportunity) (bool, error) {
	signalsJSON, err := json.Marshal(opp.Signals)
	if err != nil {
		return false, fmt.Errorf("marshal signals: %w", err)
	}

	now := time.Now().UTC()
	if opp.DetectedAt.IsZero() {
		opp.DetectedAt = now
	}

	query, args, err := sq.Insert("opportunities").
		Columns("source_id", "title", "description", "source_type", "source_url",
			"source_id_external", "score", "signals", "detected_at", "created_at").
		Values(opp.SourceID, opp.Title, opp.Description, opp.SourceType, opp.SourceURL,
			opp.ExternalID, opp.Score, string(signalsJSON), opp.DetectedAt.UTC(), now).
		Suffix("ON CONFLICT(source_type, source_id_external) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert opportunity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("last insert id: %w", err)
	}

	opp.ID = id
	opp.CreatedAt = now
	return true, nil
}

// Query returns filtered opportunities ordered by detected_at descending.
func (r *OpportunityRepository) Query(ctx context.Context, filter domain.OpportunityFilter) ([]domain.Opportunity, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	builder := sq.Select(opportunityColumns...).
		From("opportunities").
		Where(sq.GtOrEq{"score": filter.MinScore}).
		OrderBy("detected_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	if filter.SourceType != "" {
		builder = builder.Where(sq.Eq{"source_type": filter.SourceType})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query opportunities: %w", err)
	}
	defer rows.Close()

	return collectOpportunities(rows)
}

// ByID returns a single opportunity or domain.ErrNotFound.
func (r *OpportunityRepository) ByID(ctx context.Context, id int64) (domain.Opportunity, error) {
	query, args, err := sq.Select(opportunityColumns...).
		From("opportunities").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Opportunity{}, fmt.Errorf("build query: %w", err)
	}

	opp, err := scanOpportunity(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Opportunity{}, fmt.Errorf("opportunity %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Opportunity{}, fmt.Errorf("get opportunity: %w", err)
	}

	return opp, nil
}

// DetectedBetween returns opportunities with detected_at in [start, end)
// ordered by score descending, for report generation.
func (r *OpportunityRepository) DetectedBetween(ctx context.Context, start, end time.Time) ([]domain.Opportunity, error) {
	query, args, err := sq.Select(opportunityColumns...).
		From("opportunities").
		Where(sq.GtOrEq{"detected_at": start.UTC()}).
		Where(sq.Lt{"detected_at": end.UTC()}).
		OrderBy("score DESC", "detected_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query window: %w", err)
	}
	defer rows.Close()

	return collectOpportunities(rows)
}

// Stats aggregates the whole store inside a single transaction so the
// numbers are mutually consistent.
func (r *OpportunityRepository) Stats(ctx context.Context) (domain.Stats, error) {
	stats := domain.Stats{BySource: map[string]int{}}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return stats, fmt.Errorf("begin stats tx: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(AVG(score), 0) FROM opportunities").
		Scan(&stats.Total, &stats.AverageScore); err != nil {
		return stats, fmt.Errorf("total stats: %w", err)
	}

	dayAgo := time.Now().UTC().Add(-24 * time.Hour)
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM opportunities WHERE detected_at >= ?", dayAgo).
		Scan(&stats.Today); err != nil {
		return stats, fmt.Errorf("today stats: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT source_type, COUNT(*) FROM opportunities GROUP BY source_type")
	if err != nil {
		return stats, fmt.Errorf("by-source stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sourceType string
		var count int
		if err := rows.Scan(&sourceType, &count); err != nil {
			return stats, fmt.Errorf("scan by-source row: %w", err)
		}
		stats.BySource[sourceType] = count
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("by-source rows: %w", err)
	}

	return stats, tx.Commit()
}

func collectOpportunities(rows *sql.Rows) ([]domain.Opportunity, error) {
	var opportunities []domain.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		opportunities = append(opportunities, opp)
	}

	return opportunities, rows.Err()
}

func scanOpportunity(row rowScanner) (domain.Opportunity, error) {
	var opp domain.Opportunity
	var description, sourceURL sql.NullString
	var sourceID sql.NullInt64
	var signalsJSON string

	err := row.Scan(&opp.ID, &sourceID, &opp.Title, &description, &opp.SourceType,
		&sourceURL, &opp.ExternalID, &opp.Score, &signalsJSON, &opp.DetectedAt, &opp.CreatedAt)
	if err != nil {
		return domain.Opportunity{}, err
	}

	opp.SourceID = sourceID.Int64
	opp.Description = description.String
	opp.SourceURL = sourceURL.String

	if err := json.Unmarshal([]byte(signalsJSON), &opp.Signals); err != nil || opp.Signals == nil {
		opp.Signals = []string{}
	}

	return opp, nil
}
