package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// SeedChapter inserts verses 1..n of book/chapter for tr directly, bypassing
// the repository. Returns the inserted records.
func SeedChapter(t *testing.T, pool *pgxpool.Pool, tr domain.Translation, book string, chapter, n int) []domain.VerseRecord {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	out := make([]domain.VerseRecord, 0, n)
	for v := 1; v <= n; v++ {
		rec := domain.NewVerseRecord(tr, book, chapter, v, "seeded text", domain.CategoryCore, "seed")
		rec.CreatedAt = now

		_, err := pool.Exec(ctx,
			`INSERT INTO verses (reference, book, chapter, verse, text, translation, category, source, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			rec.Reference, rec.Book, rec.Chapter, rec.Verse, rec.Text,
			string(rec.Translation), string(rec.Category), rec.Source, rec.CreatedAt,
		)
		if err != nil {
			t.Fatalf("testhelper: SeedChapter insert %s: %v", rec.Reference, err)
		}
		out = append(out, rec)
	}

	return out
}
