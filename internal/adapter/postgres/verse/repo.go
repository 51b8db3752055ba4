// Package verse implements the verse store on PostgreSQL: verse rows with
// insert-or-ignore semantics and the per-unit attempt status.
package verse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/alansafahi/soapboxx-versesync/internal/adapter/postgres"
	"github.com/alansafahi/soapboxx-versesync/internal/adapter/versesql"
	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// Repo provides verse persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	qb   versesql.Builder
}

// New creates a new verse repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, qb: versesql.Dollar()}
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// InsertVerses inserts recs using pgx.Batch, one statement per verse.
// Existing verses (by reference, translation) are skipped via
// ON CONFLICT DO NOTHING. Returns the number of actually inserted rows.
func (r *Repo) InsertVerses(ctx context.Context, recs []domain.VerseRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for i := range recs {
		sql, args, err := r.qb.InsertVerses(recs[i : i+1]).ToSql()
		if err != nil {
			return 0, fmt.Errorf("build insert: %w", err)
		}
		batch.Queue(sql, args...)
	}

	inserted, err := r.sendBatchExec(ctx, batch)
	if err != nil {
		return inserted, postgres.MapError(err, "insert verses")
	}
	return inserted, nil
}

// RecordAttempt stores the latest attempt for a unit, replacing the previous one.
func (r *Repo) RecordAttempt(ctx context.Context, a domain.UnitAttempt) error {
	sql, args, err := r.qb.UpsertStatus(a).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert status: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "record attempt "+a.Unit.String())
	}
	return nil
}

// sendBatchExec sends a pgx.Batch and counts affected rows from Exec results.
func (r *Repo) sendBatchExec(ctx context.Context, batch *pgx.Batch) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	results := q.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int
	for range batch.Len() {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("batch exec: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// CountByTranslation returns the number of stored verses of tr.
func (r *Repo) CountByTranslation(ctx context.Context, tr domain.Translation) (int, error) {
	return r.count(ctx, "count verses "+string(tr), r.qb.CountByTranslation(tr))
}

// CountFullyCovered returns how many references are stored in every one of
// trs. A nil refs counts over all stored references.
func (r *Repo) CountFullyCovered(ctx context.Context, trs []domain.Translation, refs []string) (int, error) {
	if len(trs) == 0 || (refs != nil && len(refs) == 0) {
		return 0, nil
	}
	return r.count(ctx, "count fully covered", r.qb.CountFullyCovered(trs, refs))
}

type sqlizer interface {
	ToSql() (string, []any, error)
}

func (r *Repo) count(ctx context.Context, op string, q sqlizer) (int, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: build: %w", op, err)
	}

	var n int
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(err, op)
	}
	return n, nil
}

// CountByChapter returns the stored verse count of every chapter of tr that
// has at least one verse.
func (r *Repo) CountByChapter(ctx context.Context, tr domain.Translation) (map[domain.ChapterKey]int, error) {
	op := "count chapters " + string(tr)
	sql, args, err := r.qb.CountByChapter(tr).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build: %w", op, err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, op)
	}
	defer rows.Close()

	out := make(map[domain.ChapterKey]int)
	for rows.Next() {
		var (
			key domain.ChapterKey
			n   int
		)
		if err := rows.Scan(&key.Book, &key.Chapter, &n); err != nil {
			return nil, postgres.MapError(err, op)
		}
		out[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, op)
	}
	return out, nil
}

// TranslationsForReference lists the translations in which ref is stored.
func (r *Repo) TranslationsForReference(ctx context.Context, ref string) ([]domain.Translation, error) {
	op := "translations for " + ref
	sql, args, err := r.qb.TranslationsForReference(ref).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build: %w", op, err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, op)
	}

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, postgres.MapError(err, op)
	}

	out := make([]domain.Translation, len(codes))
	for i, c := range codes {
		out[i] = domain.Translation(c)
	}
	return out, nil
}

// UnitStatuses returns the latest recorded attempt of every unit of tr.
func (r *Repo) UnitStatuses(ctx context.Context, tr domain.Translation) (map[domain.ChapterKey]domain.UnitAttempt, error) {
	op := "unit statuses " + string(tr)
	sql, args, err := r.qb.UnitStatuses(tr).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build: %w", op, err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, op)
	}

	statusRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[versesql.StatusRow])
	if err != nil {
		return nil, postgres.MapError(err, op)
	}

	out := make(map[domain.ChapterKey]domain.UnitAttempt, len(statusRows))
	for _, row := range statusRows {
		a := row.ToDomain()
		out[a.Unit.Key()] = a
	}
	return out, nil
}

// Ping checks that the database is reachable.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return postgres.MapError(err, "ping")
	}
	return nil
}
