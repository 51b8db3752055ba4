package coverage

import (
	"context"
	"fmt"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// PendingWorkUnits lists, in canonical order, the chapters of tr that hold
// fewer verses than the canon and were either never attempted, gapped, or
// left partial while partial retries are enabled.
func (a *Auditor) PendingWorkUnits(ctx context.Context, tr domain.Translation) ([]domain.WorkUnit, error) {
	if !tr.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTranslation, string(tr))
	}

	st, err := a.load(ctx, tr)
	if err != nil {
		return nil, err
	}

	var pending []domain.WorkUnit
	for _, u := range domain.EnumerateWorkUnits(tr) {
		if a.isPending(u, st) {
			pending = append(pending, u)
		}
	}
	return pending, nil
}

type translationState struct {
	counts   map[domain.ChapterKey]int
	statuses map[domain.ChapterKey]domain.UnitAttempt
}

func (a *Auditor) load(ctx context.Context, tr domain.Translation) (translationState, error) {
	counts, err := a.store.CountByChapter(ctx, tr)
	if err != nil {
		return translationState{}, fmt.Errorf("chapter counts %s: %w", tr, err)
	}
	statuses, err := a.store.UnitStatuses(ctx, tr)
	if err != nil {
		return translationState{}, fmt.Errorf("unit statuses %s: %w", tr, err)
	}
	return translationState{counts: counts, statuses: statuses}, nil
}

func (a *Auditor) isPending(u domain.WorkUnit, st translationState) bool {
	if st.counts[u.Key()] >= u.ExpectedVerses() {
		return false
	}
	attempt, ok := st.statuses[u.Key()]
	if !ok {
		return true
	}
	switch attempt.Status {
	case domain.UnitStatusGapped:
		return true
	case domain.UnitStatusPartial:
		return a.cfg.RetryPartial
	default:
		return false
	}
}
