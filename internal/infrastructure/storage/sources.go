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

// SourceRepository persists configured sources in SQLite.
type SourceRepository struct {
	db *sql.DB
}

var _ ports.SourceStore = (*SourceRepository)(nil)

// NewSourceRepository wires a sql.DB implementation.
func NewSourceRepository(db *sql.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

var sourceColumns = []string{"id", "type", "name", "url", "enabled", "is_builtin", "created_at"}

// All returns every source, builtins first.
func (r *SourceRepository) All(ctx context.Context) ([]domain.Source, error) {
	query, args, err := sq.Select(sourceColumns...).
		From("sources").
		OrderBy("is_builtin DESC", "name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return r.querySources(ctx, query, args)
}

// Enabled returns only sources that participate in fetch cycles.
func (r *SourceRepository) Enabled(ctx context.Context) ([]domain.Source, error) {
	query, args, err := sq.Select(sourceColumns...).
		From("sources").
		Where(sq.Eq{"enabled": true}).
		OrderBy("is_builtin DESC", "name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return r.querySources(ctx, query, args)
}

// ByID returns a single source or domain.ErrNotFound.
func (r *SourceRepository) ByID(ctx context.Context, id int64) (domain.Source, error) {
	query, args, err := sq.Select(sourceColumns...).
		From("sources").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Source{}, fmt.Errorf("build query: %w", err)
	}

	src, err := scanSource(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Source{}, fmt.Errorf("source %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Source{}, fmt.Errorf("get source: %w", err)
	}

	return src, nil
}

// Create inserts a source and fills in its assigned id and creation time.
func (r *SourceRepository) Create(ctx context.Context, src *domain.Source) error {
	now := time.Now().UTC()

	query, args, err := sq.Insert("sources").
		Columns("type", "name", "url", "enabled", "is_builtin", "created_at").
		Values(src.Type, src.Name, src.URL, src.Enabled, src.IsBuiltin, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert source: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	src.ID = id
	src.CreatedAt = now
	return nil
}

// SetEnabled flips the enabled flag of any source, builtin or not.
func (r *SourceRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	query, args, err := sq.Update("sources").
		Set("enabled", enabled).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update source: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("source %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a non-builtin source. Opportunities already detected from
// it are kept.
func (r *SourceRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := sq.Delete("sources").
		Where(sq.Eq{"id": id, "is_builtin": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("source %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// CountByType counts sources of one type regardless of enabled state.
func (r *SourceRepository) CountByType(ctx context.Context, sourceType string) (int, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("sources").
		Where(sq.Eq{"type": sourceType}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sources: %w", err)
	}

	return count, nil
}

// CountBuiltin counts seeded builtin sources.
func (r *SourceRepository) CountBuiltin(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("sources").
		Where(sq.Eq{"is_builtin": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count builtin sources: %w", err)
	}

	return count, nil
}

func (r *SourceRepository) querySources(ctx context.Context, query string, args []any) ([]domain.Source, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}

	return sources, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (domain.Source, error) {
	var src domain.Source
	var url sql.NullString

	err := row.Scan(&src.ID, &src.Type, &src.Name, &url, &src.Enabled, &src.IsBuiltin, &src.CreatedAt)
	if err != nil {
		return domain.Source{}, err
	}

	src.URL = url.String
	return src, nil
}
