package coverage

import (
	"context"
	"sync"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// verseStoreMock is a mock implementation of verseStore.
type verseStoreMock struct {
	CountByTranslationFunc       func(ctx context.Context, tr domain.Translation) (int, error)
	CountByChapterFunc           func(ctx context.Context, tr domain.Translation) (map[domain.ChapterKey]int, error)
	CountFullyCoveredFunc        func(ctx context.Context, trs []domain.Translation, refs []string) (int, error)
	TranslationsForReferenceFunc func(ctx context.Context, ref string) ([]domain.Translation, error)
	UnitStatusesFunc             func(ctx context.Context, tr domain.Translation) (map[domain.ChapterKey]domain.UnitAttempt, error)

	mu    sync.Mutex
	calls struct {
		CountFullyCovered []struct {
			Trs  []domain.Translation
			Refs []string
		}
	}
}

func (m *verseStoreMock) CountByTranslation(ctx context.Context, tr domain.Translation) (int, error) {
	if m.CountByTranslationFunc == nil {
		panic("verseStoreMock.CountByTranslationFunc: method is nil but verseStore.CountByTranslation was just called")
	}
	return m.CountByTranslationFunc(ctx, tr)
}

func (m *verseStoreMock) CountByChapter(ctx context.Context, tr domain.Translation) (map[domain.ChapterKey]int, error) {
	if m.CountByChapterFunc == nil {
		return map[domain.ChapterKey]int{}, nil
	}
	return m.CountByChapterFunc(ctx, tr)
}

func (m *verseStoreMock) CountFullyCovered(ctx context.Context, trs []domain.Translation, refs []string) (int, error) {
	m.mu.Lock()
	m.calls.CountFullyCovered = append(m.calls.CountFullyCovered, struct {
		Trs  []domain.Translation
		Refs []string
	}{trs, refs})
	m.mu.Unlock()
	if m.CountFullyCoveredFunc == nil {
		return 0, nil
	}
	return m.CountFullyCoveredFunc(ctx, trs, refs)
}

func (m *verseStoreMock) TranslationsForReference(ctx context.Context, ref string) ([]domain.Translation, error) {
	if m.TranslationsForReferenceFunc == nil {
		panic("verseStoreMock.TranslationsForReferenceFunc: method is nil but verseStore.TranslationsForReference was just called")
	}
	return m.TranslationsForReferenceFunc(ctx, ref)
}

func (m *verseStoreMock) UnitStatuses(ctx context.Context, tr domain.Translation) (map[domain.ChapterKey]domain.UnitAttempt, error) {
	if m.UnitStatusesFunc == nil {
		return map[domain.ChapterKey]domain.UnitAttempt{}, nil
	}
	return m.UnitStatusesFunc(ctx, tr)
}

// CountFullyCoveredCalls returns the recorded CountFullyCovered calls.
func (m *verseStoreMock) CountFullyCoveredCalls() []struct {
	Trs  []domain.Translation
	Refs []string
} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls.CountFullyCovered
}
