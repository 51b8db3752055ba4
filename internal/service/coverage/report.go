package coverage

import (
	"context"
	"time"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// TranslationReport is one translation's line in a Report.
type TranslationReport struct {
	Translation  domain.Translation `json:"translation"`
	Imported     int                `json:"imported"`
	Expected     int                `json:"expected"`
	Ratio        float64            `json:"ratio"`
	GappedUnits  int                `json:"gapped_units"`
	PartialUnits int                `json:"partial_units"`
	// ShortUnits counts chapters recorded as persisted that still hold
	// fewer verses than the canon, typically because the source omits them.
	ShortUnits   int                `json:"short_units"`
	PendingUnits int                `json:"pending_units"`
}

// Gap is an attempted unit that is still short of the canon.
type Gap struct {
	domain.WorkUnit
	Status  domain.UnitStatus `json:"status"`
	Missing int               `json:"missing"`
	Error   string            `json:"error,omitempty"`
}

// Report is a point-in-time coverage summary over the target translations.
type Report struct {
	Translations      []TranslationReport `json:"translations"`
	FullCoverageRatio float64             `json:"full_coverage_ratio"`
	// Complete is true only when every canonical reference is stored in
	// every target translation.
	Complete    bool      `json:"complete"`
	Gaps        []Gap     `json:"gaps"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Report builds a coverage summary for every target translation.
func (a *Auditor) Report(ctx context.Context) (Report, error) {
	rep := Report{
		Translations: make([]TranslationReport, 0, len(a.cfg.Translations)),
		Gaps:         []Gap{},
		GeneratedAt:  time.Now().UTC(),
	}

	for _, tr := range a.cfg.Translations {
		st, err := a.load(ctx, tr)
		if err != nil {
			return Report{}, err
		}

		line := TranslationReport{Translation: tr, Expected: domain.TotalVerses()}
		for _, n := range st.counts {
			line.Imported += n
		}
		line.Ratio = ratio(line.Imported, line.Expected)

		for _, u := range domain.EnumerateWorkUnits(tr) {
			have := st.counts[u.Key()]
			if have >= u.ExpectedVerses() {
				continue
			}
			if a.isPending(u, st) {
				line.PendingUnits++
			}
			attempt, ok := st.statuses[u.Key()]
			if !ok {
				continue
			}
			switch attempt.Status {
			case domain.UnitStatusGapped:
				line.GappedUnits++
			case domain.UnitStatusPartial:
				line.PartialUnits++
			case domain.UnitStatusPersisted:
				line.ShortUnits++
			default:
				continue
			}
			rep.Gaps = append(rep.Gaps, Gap{
				WorkUnit: u,
				Status:   attempt.Status,
				Missing:  u.ExpectedVerses() - have,
				Error:    attempt.Error,
			})
		}

		rep.Translations = append(rep.Translations, line)
	}

	full, err := a.FullCoverageRatio(ctx)
	if err != nil {
		return Report{}, err
	}
	rep.FullCoverageRatio = full
	rep.Complete = full == 1.0

	a.log.DebugContext(ctx, "coverage report built",
		"translations", len(rep.Translations),
		"gaps", len(rep.Gaps),
		"full_coverage_ratio", full,
	)
	return rep, nil
}
