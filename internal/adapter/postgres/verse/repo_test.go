//go:build integration

package verse_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	postgres "github.com/alansafahi/soapboxx-versesync/internal/adapter/postgres"
	"github.com/alansafahi/soapboxx-versesync/internal/adapter/postgres/testhelper"
	"github.com/alansafahi/soapboxx-versesync/internal/adapter/postgres/verse"
	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

func newRepo(t *testing.T) (*verse.Repo, *postgres.TxManager) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return verse.New(pool), postgres.NewTxManager(pool)
}

func chapter(tr domain.Translation, book string, ch, n int) []domain.VerseRecord {
	out := make([]domain.VerseRecord, 0, n)
	for v := 1; v <= n; v++ {
		out = append(out, domain.NewVerseRecord(tr, book, ch, v, "text", domain.CategoryCore, "test"))
	}
	return out
}

func TestRepo_InsertVerses_Idempotent(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	recs := chapter(domain.TranslationKJV, "Obadiah", 1, 21)

	inserted, err := repo.InsertVerses(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, 21, inserted)

	inserted, err = repo.InsertVerses(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted, "second insert must be absorbed by the unique key")

	n, err := repo.CountByTranslation(ctx, domain.TranslationKJV)
	require.NoError(t, err)
	assert.Equal(t, 21, n)
}

func TestRepo_InsertVerses_Empty(t *testing.T) {
	repo, _ := newRepo(t)

	inserted, err := repo.InsertVerses(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestRepo_CountByChapter(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.InsertVerses(ctx, chapter(domain.TranslationASV, "Ruth", 1, 22))
	require.NoError(t, err)
	_, err = repo.InsertVerses(ctx, chapter(domain.TranslationASV, "Ruth", 2, 5))
	require.NoError(t, err)

	got, err := repo.CountByChapter(ctx, domain.TranslationASV)
	require.NoError(t, err)
	assert.Equal(t, map[domain.ChapterKey]int{
		{Book: "Ruth", Chapter: 1}: 22,
		{Book: "Ruth", Chapter: 2}: 5,
	}, got)
}

func TestRepo_CountFullyCovered(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	john := func(tr domain.Translation) []domain.VerseRecord {
		return []domain.VerseRecord{domain.NewVerseRecord(tr, "John", 3, 16, "For God so loved the world", domain.CategoryLove, "test")}
	}
	trs := []domain.Translation{domain.TranslationKJV, domain.TranslationASV, domain.TranslationWEB}
	refs := []string{"John 3:16"}

	for _, tr := range trs[:2] {
		_, err := repo.InsertVerses(ctx, john(tr))
		require.NoError(t, err)
	}

	n, err := repo.CountFullyCovered(ctx, trs, refs)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = repo.InsertVerses(ctx, john(domain.TranslationWEB))
	require.NoError(t, err)

	n, err = repo.CountFullyCovered(ctx, trs, refs)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.TranslationsForReference(ctx, "John 3:16")
	require.NoError(t, err)
	assert.ElementsMatch(t, trs, got)
}

func TestRepo_RecordAttempt_Upserts(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	unit := domain.WorkUnit{Translation: domain.TranslationWEB, Book: "Jude", Chapter: 1}
	first := domain.UnitAttempt{Unit: unit, Status: domain.UnitStatusGapped, Error: "all sources failed", RunID: "r1", AttemptedAt: time.Now()}
	require.NoError(t, repo.RecordAttempt(ctx, first))

	second := domain.UnitAttempt{Unit: unit, Status: domain.UnitStatusPersisted, Source: "bolls", Returned: 25, Accepted: 25, RunID: "r2", AttemptedAt: time.Now()}
	require.NoError(t, repo.RecordAttempt(ctx, second))

	got, err := repo.UnitStatuses(ctx, domain.TranslationWEB)
	require.NoError(t, err)
	require.Len(t, got, 1)

	a := got[unit.Key()]
	assert.Equal(t, domain.UnitStatusPersisted, a.Status)
	assert.Equal(t, "bolls", a.Source)
	assert.Equal(t, 25, a.Accepted)
	assert.Equal(t, "r2", a.RunID)
	assert.Empty(t, a.Error)
}

func TestRepo_InsertInsideRolledBackTx(t *testing.T) {
	repo, tm := newRepo(t)
	ctx := context.Background()
	sentinel := errors.New("status write failed")

	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := repo.InsertVerses(ctx, chapter(domain.TranslationBBE, "Jude", 1, 25)); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	n, err := repo.CountByTranslation(ctx, domain.TranslationBBE)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRepo_Ping(t *testing.T) {
	repo, _ := newRepo(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
