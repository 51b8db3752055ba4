package importer

import (
	"slices"
	"sync"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// AttemptLog collects the outcomes of one batch run. Safe for concurrent use.
type AttemptLog struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func NewAttemptLog() *AttemptLog {
	return &AttemptLog{}
}

// Record appends an outcome.
func (l *AttemptLog) Record(out Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcomes = append(l.outcomes, out)
}

// Outcomes returns a copy of every recorded outcome in completion order.
func (l *AttemptLog) Outcomes() []Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.outcomes)
}

// Count returns the number of outcomes with status s.
func (l *AttemptLog) Count(s Status) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, o := range l.outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Gaps returns the gapped units of the run in canonical order.
func (l *AttemptLog) Gaps() []domain.WorkUnit {
	l.mu.Lock()
	defer l.mu.Unlock()

	var gaps []domain.WorkUnit
	for _, o := range l.outcomes {
		if o.Status == StatusGapped {
			gaps = append(gaps, o.Unit)
		}
	}
	slices.SortFunc(gaps, compareUnits)
	return gaps
}

func compareUnits(a, b domain.WorkUnit) int {
	if a.Translation != b.Translation {
		if a.Translation < b.Translation {
			return -1
		}
		return 1
	}
	ba, _ := domain.LookupBook(a.Book)
	bb, _ := domain.LookupBook(b.Book)
	if ba.Number != bb.Number {
		return ba.Number - bb.Number
	}
	return a.Chapter - b.Chapter
}
