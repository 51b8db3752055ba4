package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// Status is the result of processing one work unit.
type Status string

const (
	StatusPersisted Status = Status(domain.UnitStatusPersisted)
	StatusPartial   Status = Status(domain.UnitStatusPartial)
	StatusGapped    Status = Status(domain.UnitStatusGapped)
	// StatusSkipped marks a unit outside the canon; nothing is fetched or recorded.
	StatusSkipped Status = "skipped"
	// StatusCanceled marks a unit interrupted by run cancellation before
	// anything was fetched; it stays pending.
	StatusCanceled Status = "canceled"
	// StatusFailed marks a unit whose persistence failed; Outcome.Err is set.
	StatusFailed Status = "failed"
)

// ErrNothingAccepted is reported for a source whose every verse failed validation.
var ErrNothingAccepted = errors.New("no verse passed validation")

// SourceError is one source's failure for a unit.
type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string { return e.Source + ": " + e.Err.Error() }

// Outcome is the record of one unit's processing.
type Outcome struct {
	Unit       domain.WorkUnit
	Status     Status
	Source     string
	Returned   int
	Accepted   int
	Rejected   int
	Inserted   int
	Conflicted int
	Errors     []SourceError
	// Err is non-nil only when the store failed; it wraps domain.ErrStoreUnavailable.
	Err      error
	Duration time.Duration
}

// ErrorSummary joins the per-source errors for storage and logs.
func (o Outcome) ErrorSummary() string {
	if len(o.Errors) == 0 {
		return ""
	}
	parts := make([]string, len(o.Errors))
	for i, e := range o.Errors {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Missing returns how many canonical verses the unit still lacks after this attempt.
func (o Outcome) Missing() int {
	return max(o.Unit.ExpectedVerses()-o.Accepted, 0)
}

func (o Outcome) String() string {
	if o.Source == "" {
		return fmt.Sprintf("%s: %s", o.Unit, o.Status)
	}
	return fmt.Sprintf("%s: %s via %s (%d/%d)", o.Unit, o.Status, o.Source, o.Accepted, o.Unit.ExpectedVerses())
}
