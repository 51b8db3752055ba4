// Package verse implements the verse store on embedded SQLite.
package verse

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/alansafahi/soapboxx-versesync/internal/adapter/sqlite"
	"github.com/alansafahi/soapboxx-versesync/internal/adapter/versesql"
	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// maxRowsPerStatement keeps multi-row inserts under SQLite's bound-variable limit.
const maxRowsPerStatement = 100

// Repo provides verse persistence backed by SQLite.
type Repo struct {
	db *sqlx.DB
	qb versesql.Builder
}

// New creates a new verse repository.
func New(db *sqlx.DB) *Repo {
	return &Repo{db: db, qb: versesql.Question()}
}

// InsertVerses inserts recs, skipping those whose (reference, translation)
// already exists. Returns the number of actually inserted rows.
func (r *Repo) InsertVerses(ctx context.Context, recs []domain.VerseRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	q := sqlite.ExtFromCtx(ctx, r.db)

	var inserted int
	for start := 0; start < len(recs); start += maxRowsPerStatement {
		end := min(start+maxRowsPerStatement, len(recs))

		sql, args, err := r.qb.InsertVerses(recs[start:end]).ToSql()
		if err != nil {
			return inserted, fmt.Errorf("build insert: %w", err)
		}

		res, err := q.ExecContext(ctx, sql, args...)
		if err != nil {
			return inserted, sqlite.MapError(err, "insert verses")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, sqlite.MapError(err, "insert verses")
		}
		inserted += int(n)
	}

	return inserted, nil
}

// RecordAttempt stores the latest attempt for a unit, replacing the previous one.
func (r *Repo) RecordAttempt(ctx context.Context, a domain.UnitAttempt) error {
	sql, args, err := r.qb.UpsertStatus(a).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert status: %w", err)
	}

	if _, err := sqlite.ExtFromCtx(ctx, r.db).ExecContext(ctx, sql, args...); err != nil {
		return sqlite.MapError(err, "record attempt "+a.Unit.String())
	}
	return nil
}

// CountByTranslation returns the number of stored verses of tr.
func (r *Repo) CountByTranslation(ctx context.Context, tr domain.Translation) (int, error) {
	sql, args, err := r.qb.CountByTranslation(tr).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int
	if err := sqlx.GetContext(ctx, sqlite.ExtFromCtx(ctx, r.db), &n, sql, args...); err != nil {
		return 0, sqlite.MapError(err, "count verses "+string(tr))
	}
	return n, nil
}

// CountFullyCovered returns how many references are stored in every one of
// trs. A nil refs counts over all stored references.
func (r *Repo) CountFullyCovered(ctx context.Context, trs []domain.Translation, refs []string) (int, error) {
	if len(trs) == 0 || (refs != nil && len(refs) == 0) {
		return 0, nil
	}

	sql, args, err := r.qb.CountFullyCovered(trs, refs).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build full coverage: %w", err)
	}

	var n int
	if err := sqlx.GetContext(ctx, sqlite.ExtFromCtx(ctx, r.db), &n, sql, args...); err != nil {
		return 0, sqlite.MapError(err, "count fully covered")
	}
	return n, nil
}

type chapterCount struct {
	Book    string `db:"book"`
	Chapter int    `db:"chapter"`
	Count   int    `db:"n"`
}

// CountByChapter returns the stored verse count of every chapter of tr that
// has at least one verse.
func (r *Repo) CountByChapter(ctx context.Context, tr domain.Translation) (map[domain.ChapterKey]int, error) {
	sql, args, err := r.qb.CountByChapter(tr).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build chapter counts: %w", err)
	}

	rows, err := sqlite.ExtFromCtx(ctx, r.db).QueryxContext(ctx, sql, args...)
	if err != nil {
		return nil, sqlite.MapError(err, "count chapters "+string(tr))
	}
	defer rows.Close()

	out := make(map[domain.ChapterKey]int)
	for rows.Next() {
		var c chapterCount
		if err := rows.Scan(&c.Book, &c.Chapter, &c.Count); err != nil {
			return nil, sqlite.MapError(err, "scan chapter count")
		}
		out[domain.ChapterKey{Book: c.Book, Chapter: c.Chapter}] = c.Count
	}
	if err := rows.Err(); err != nil {
		return nil, sqlite.MapError(err, "count chapters "+string(tr))
	}
	return out, nil
}

// TranslationsForReference lists the translations in which ref is stored.
func (r *Repo) TranslationsForReference(ctx context.Context, ref string) ([]domain.Translation, error) {
	sql, args, err := r.qb.TranslationsForReference(ref).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build translations for reference: %w", err)
	}

	var codes []string
	if err := sqlx.SelectContext(ctx, sqlite.ExtFromCtx(ctx, r.db), &codes, sql, args...); err != nil {
		return nil, sqlite.MapError(err, "translations for "+ref)
	}

	out := make([]domain.Translation, len(codes))
	for i, c := range codes {
		out[i] = domain.Translation(c)
	}
	return out, nil
}

// UnitStatuses returns the latest recorded attempt of every unit of tr.
func (r *Repo) UnitStatuses(ctx context.Context, tr domain.Translation) (map[domain.ChapterKey]domain.UnitAttempt, error) {
	sql, args, err := r.qb.UnitStatuses(tr).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build unit statuses: %w", err)
	}

	var rows []versesql.StatusRow
	if err := sqlx.SelectContext(ctx, sqlite.ExtFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, sqlite.MapError(err, "unit statuses "+string(tr))
	}

	out := make(map[domain.ChapterKey]domain.UnitAttempt, len(rows))
	for _, row := range rows {
		a := row.ToDomain()
		out[a.Unit.Key()] = a
	}
	return out, nil
}

// Ping checks that the database is usable.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return sqlite.MapError(err, "ping")
	}
	return nil
}
