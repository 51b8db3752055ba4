// Package versesql builds the verse store queries shared by the PostgreSQL
// and SQLite backends. Both dialects accept the same SQL; only the
// placeholder format differs.
package versesql

import (
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// Tables.
const (
	TableVerses     = "verses"
	TableUnitStatus = "unit_status"
)

var verseColumns = []string{
	"reference", "book", "chapter", "verse", "text", "translation", "category", "source", "created_at",
}

var statusColumns = []string{
	"translation", "book", "chapter", "status", "source", "returned", "accepted", "last_error", "run_id", "attempted_at",
}

// Builder is a squirrel statement builder for one dialect.
type Builder struct {
	sb squirrel.StatementBuilderType
}

// Dollar returns a builder using $n placeholders (PostgreSQL).
func Dollar() Builder {
	return Builder{sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// Question returns a builder using ? placeholders (SQLite).
func Question() Builder {
	return Builder{sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)}
}

// InsertVerses is an insert-or-ignore on (reference, translation) for recs.
func (b Builder) InsertVerses(recs []domain.VerseRecord) squirrel.InsertBuilder {
	q := b.sb.Insert(TableVerses).Columns(verseColumns...)
	for _, r := range recs {
		q = q.Values(r.Reference, r.Book, r.Chapter, r.Verse, r.Text,
			string(r.Translation), string(r.Category), r.Source, r.CreatedAt.UTC())
	}
	return q.Suffix("ON CONFLICT (reference, translation) DO NOTHING")
}

// CountByTranslation counts stored verses of tr.
func (b Builder) CountByTranslation(tr domain.Translation) squirrel.SelectBuilder {
	return b.sb.Select("COUNT(*)").
		From(TableVerses).
		Where(squirrel.Eq{"translation": string(tr)})
}

// CountByChapter returns (book, chapter, count) rows for tr.
func (b Builder) CountByChapter(tr domain.Translation) squirrel.SelectBuilder {
	return b.sb.Select("book", "chapter", "COUNT(*)").
		From(TableVerses).
		Where(squirrel.Eq{"translation": string(tr)}).
		GroupBy("book", "chapter")
}

// CountFullyCovered counts references present in every one of trs,
// optionally restricted to refs. A nil refs means no restriction.
func (b Builder) CountFullyCovered(trs []domain.Translation, refs []string) squirrel.SelectBuilder {
	codes := make([]string, len(trs))
	for i, tr := range trs {
		codes[i] = string(tr)
	}

	inner := squirrel.Select("reference").
		From(TableVerses).
		Where(squirrel.Eq{"translation": codes})
	if refs != nil {
		inner = inner.Where(squirrel.Eq{"reference": refs})
	}
	inner = inner.GroupBy("reference").
		Having("COUNT(DISTINCT translation) = ?", len(codes))

	return b.sb.Select("COUNT(*)").FromSelect(inner, "covered")
}

// TranslationsForReference lists the translations holding ref.
func (b Builder) TranslationsForReference(ref string) squirrel.SelectBuilder {
	return b.sb.Select("translation").
		From(TableVerses).
		Where(squirrel.Eq{"reference": ref}).
		OrderBy("translation")
}

// UpsertStatus writes the latest attempt for a unit, replacing any earlier one.
func (b Builder) UpsertStatus(a domain.UnitAttempt) squirrel.InsertBuilder {
	return b.sb.Insert(TableUnitStatus).
		Columns(statusColumns...).
		Values(string(a.Unit.Translation), a.Unit.Book, a.Unit.Chapter, string(a.Status), a.Source,
			a.Returned, a.Accepted, a.Error, a.RunID, a.AttemptedAt.UTC()).
		Suffix(`ON CONFLICT (translation, book, chapter) DO UPDATE SET
			status = excluded.status,
			source = excluded.source,
			returned = excluded.returned,
			accepted = excluded.accepted,
			last_error = excluded.last_error,
			run_id = excluded.run_id,
			attempted_at = excluded.attempted_at`)
}

// UnitStatuses selects every status row of tr in statusColumns order.
func (b Builder) UnitStatuses(tr domain.Translation) squirrel.SelectBuilder {
	return b.sb.Select(statusColumns...).
		From(TableUnitStatus).
		Where(squirrel.Eq{"translation": string(tr)})
}

// StatusRow is the scan target for UnitStatuses.
type StatusRow struct {
	Translation string    `db:"translation"`
	Book        string    `db:"book"`
	Chapter     int       `db:"chapter"`
	Status      string    `db:"status"`
	Source      string    `db:"source"`
	Returned    int       `db:"returned"`
	Accepted    int       `db:"accepted"`
	LastError   string    `db:"last_error"`
	RunID       string    `db:"run_id"`
	AttemptedAt time.Time `db:"attempted_at"`
}

// ToDomain converts the row.
func (r StatusRow) ToDomain() domain.UnitAttempt {
	return domain.UnitAttempt{
		Unit: domain.WorkUnit{
			Translation: domain.Translation(r.Translation),
			Book:        r.Book,
			Chapter:     r.Chapter,
		},
		Status:      domain.UnitStatus(r.Status),
		Source:      r.Source,
		Returned:    r.Returned,
		Accepted:    r.Accepted,
		Error:       r.LastError,
		RunID:       r.RunID,
		AttemptedAt: r.AttemptedAt.UTC(),
	}
}
