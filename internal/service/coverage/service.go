// Package coverage audits how much of the canon each translation holds and
// which work units remain outstanding.
package coverage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

type verseStore interface {
	CountByTranslation(ctx context.Context, tr domain.Translation) (int, error)
	CountByChapter(ctx context.Context, tr domain.Translation) (map[domain.ChapterKey]int, error)
	CountFullyCovered(ctx context.Context, trs []domain.Translation, refs []string) (int, error)
	TranslationsForReference(ctx context.Context, ref string) ([]domain.Translation, error)
	UnitStatuses(ctx context.Context, tr domain.Translation) (map[domain.ChapterKey]domain.UnitAttempt, error)
}

// Config selects the target translations and the retry policy for partial units.
type Config struct {
	Translations []domain.Translation
	RetryPartial bool
}

// Auditor computes coverage figures. Expected counts come only from the
// canonical versification table.
type Auditor struct {
	log   *slog.Logger
	store verseStore
	cfg   Config
}

// NewAuditor creates an Auditor. An empty target list means every translation.
func NewAuditor(logger *slog.Logger, store verseStore, cfg Config) *Auditor {
	if len(cfg.Translations) == 0 {
		cfg.Translations = domain.AllTranslations()
	}
	return &Auditor{
		log:   logger.With("service", "coverage"),
		store: store,
		cfg:   cfg,
	}
}

// Translations returns the target translations.
func (a *Auditor) Translations() []domain.Translation {
	return a.cfg.Translations
}

// TranslationCoverage returns the fraction of the canon stored for tr.
func (a *Auditor) TranslationCoverage(ctx context.Context, tr domain.Translation) (float64, error) {
	if !tr.IsValid() {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownTranslation, string(tr))
	}

	n, err := a.store.CountByTranslation(ctx, tr)
	if err != nil {
		return 0, fmt.Errorf("coverage %s: %w", tr, err)
	}
	return ratio(n, domain.TotalVerses()), nil
}

// FullCoverageRatio returns the fraction of canonical references stored in
// every target translation.
func (a *Auditor) FullCoverageRatio(ctx context.Context) (float64, error) {
	n, err := a.store.CountFullyCovered(ctx, a.cfg.Translations, nil)
	if err != nil {
		return 0, fmt.Errorf("full coverage: %w", err)
	}
	return ratio(n, domain.TotalVerses()), nil
}

// FullCoverageRatioFor is FullCoverageRatio over a caller-supplied universe
// of references. References are canonicalized and de-duplicated; an empty
// universe yields 0.
func (a *Auditor) FullCoverageRatioFor(ctx context.Context, refs []string) (float64, error) {
	if len(refs) == 0 {
		return 0, nil
	}

	seen := make(map[string]bool, len(refs))
	canonical := make([]string, 0, len(refs))
	for _, raw := range refs {
		ref, err := domain.ParseReference(raw)
		if err != nil {
			return 0, err
		}
		s := ref.String()
		if !seen[s] {
			seen[s] = true
			canonical = append(canonical, s)
		}
	}

	n, err := a.store.CountFullyCovered(ctx, a.cfg.Translations, canonical)
	if err != nil {
		return 0, fmt.Errorf("full coverage: %w", err)
	}
	return ratio(n, len(canonical)), nil
}

// ReferenceStatus tells which target translations hold one reference.
type ReferenceStatus struct {
	Reference string               `json:"reference"`
	Present   []domain.Translation `json:"present"`
	Missing   []domain.Translation `json:"missing"`
}

// ReferenceCoverage reports which target translations hold ref.
func (a *Auditor) ReferenceCoverage(ctx context.Context, ref string) (ReferenceStatus, error) {
	parsed, err := domain.ParseReference(ref)
	if err != nil {
		return ReferenceStatus{}, err
	}

	have, err := a.store.TranslationsForReference(ctx, parsed.String())
	if err != nil {
		return ReferenceStatus{}, fmt.Errorf("reference coverage: %w", err)
	}
	stored := make(map[domain.Translation]bool, len(have))
	for _, tr := range have {
		stored[tr] = true
	}

	st := ReferenceStatus{Reference: parsed.String(), Present: []domain.Translation{}, Missing: []domain.Translation{}}
	for _, tr := range a.cfg.Translations {
		if stored[tr] {
			st.Present = append(st.Present, tr)
		} else {
			st.Missing = append(st.Missing, tr)
		}
	}
	return st, nil
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
