package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"masterdata/internal/core/apperror"
	"masterdata/internal/core/id"
	"masterdata/internal/descriptor"
	"masterdata/internal/engine"
)

// Compile-time check that RecordRepo implements engine.RecordStore.
var _ engine.RecordStore = (*RecordRepo)(nil)

// RecordRepo is the generic PostgreSQL record store. One instance serves
// every entity type: table name, columns and delete policy all come from
// the descriptor passed into each call.
type RecordRepo struct {
	txm *TxManager
}

// NewRecordRepo creates the repository.
func NewRecordRepo(txm *TxManager) *RecordRepo {
	return &RecordRepo{txm: txm}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *RecordRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// selectColumns maps descriptor columns to select expressions. The id is
// cast to text so generic map scanning yields a string.
func selectColumns(e *descriptor.Entity) []string {
	cols := e.Columns()
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == "id" {
			out = append(out, "id::text AS id")
			continue
		}
		out = append(out, c)
	}
	return out
}

func (r *RecordRepo) baseSelect(e *descriptor.Entity) squirrel.SelectBuilder {
	return r.Builder().
		Select(selectColumns(e)...).
		From(e.Table)
}

func liveOnly(e *descriptor.Entity, q squirrel.SelectBuilder) squirrel.SelectBuilder {
	if e.SoftDelete {
		return q.Where(squirrel.Eq{"deleted_at": nil})
	}
	return q
}

func (r *RecordRepo) Insert(ctx context.Context, e *descriptor.Entity, rec engine.Record) error {
	q := r.Builder().
		Insert(e.Table).
		SetMap(map[string]any(rec))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict(e.TitleSingular + " already exists").WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", e.Table, err)
	}
	return nil
}

func (r *RecordRepo) Get(ctx context.Context, e *descriptor.Entity, recordID id.ID) (engine.Record, error) {
	q := liveOnly(e, r.baseSelect(e)).
		Where(squirrel.Eq{"id": recordID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", e.Table, err)
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound(e.TitleSingular, recordID.String())
		}
		return nil, fmt.Errorf("scan %s: %w", e.Table, err)
	}
	return engine.Record(row), nil
}

func (r *RecordRepo) Update(ctx context.Context, e *descriptor.Entity, recordID id.ID, fields engine.Record) error {
	q := r.Builder().
		Update(e.Table).
		SetMap(map[string]any(fields)).
		Where(squirrel.Eq{"id": recordID})
	if e.SoftDelete {
		q = q.Where(squirrel.Eq{"deleted_at": nil})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict(e.TitleSingular + " already exists").WithCause(err)
		}
		return fmt.Errorf("update %s: %w", e.Table, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(e.TitleSingular, recordID.String())
	}
	return nil
}

func (r *RecordRepo) Delete(ctx context.Context, e *descriptor.Entity, recordID id.ID) error {
	var sql string
	var args []any
	var err error

	if e.SoftDelete {
		sql, args, err = r.Builder().
			Update(e.Table).
			Set("deleted_at", time.Now().UTC()).
			Where(squirrel.Eq{"id": recordID}).
			Where(squirrel.Eq{"deleted_at": nil}).
			ToSql()
	} else {
		sql, args, err = r.Builder().
			Delete(e.Table).
			Where(squirrel.Eq{"id": recordID}).
			ToSql()
	}
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		// Foreign key violation: the record is referenced elsewhere.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.NewConflict(e.TitleSingular+" is still referenced by other records").
				WithDetail("entity", e.Key).
				WithDetail("id", recordID.String()).
				WithCause(err)
		}
		return fmt.Errorf("execute delete %s: %w", e.Table, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(e.TitleSingular, recordID.String())
	}
	return nil
}

func (r *RecordRepo) List(ctx context.Context, e *descriptor.Entity, f engine.ListFilter) (engine.ListResult, error) {
	result := engine.ListResult{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q := r.baseSelect(e)
	if !f.IncludeDeleted {
		q = liveOnly(e, q)
	}

	if f.Search != "" && len(e.SearchableFields) > 0 {
		pattern := "%" + f.Search + "%"
		or := make(squirrel.Or, 0, len(e.SearchableFields))
		for _, field := range e.SearchableFields {
			or = append(or, squirrel.ILike{field: pattern})
		}
		q = q.Where(or)
	}

	querier := r.txm.GetQuerier(ctx)

	// Unfiltered total for the entity type.
	total, err := r.Count(ctx, e)
	if err != nil {
		return result, err
	}
	result.TotalCount = total

	// Filtered count (before pagination).
	countQ := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.FilteredCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := parseOrderBy(e, f.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return result, fmt.Errorf("list %s: %w", e.Table, err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return result, fmt.Errorf("scan %s: %w", e.Table, err)
	}
	result.Items = make([]engine.Record, len(items))
	for i, item := range items {
		result.Items[i] = engine.Record(item)
	}
	return result, nil
}

func (r *RecordRepo) Count(ctx context.Context, e *descriptor.Entity) (int64, error) {
	q := r.Builder().
		Select("COUNT(*)").
		From(e.Table)
	if e.SoftDelete {
		q = q.Where(squirrel.Eq{"deleted_at": nil})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", e.Table, err)
	}
	return n, nil
}

// parseOrderBy converts "field" / "-field" into a safe ORDER BY clause.
// Columns outside the descriptor's set are rejected.
func parseOrderBy(e *descriptor.Entity, orderBy string) (string, error) {
	if orderBy == "" {
		return "created_at DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if field == "" || !e.Orderable(field) {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	return field + " " + direction, nil
}
