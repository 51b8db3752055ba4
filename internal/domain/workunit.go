package domain

import (
	"fmt"
	"time"
)

// ChapterKey addresses one chapter of one book.
type ChapterKey struct {
	Book    string
	Chapter int
}

// WorkUnit is one fetchable unit of work: a chapter of a translation.
type WorkUnit struct {
	Translation Translation `json:"translation"`
	Book        string      `json:"book"`
	Chapter     int         `json:"chapter"`
}

func (u WorkUnit) String() string {
	return fmt.Sprintf("%s %s %d", u.Translation, u.Book, u.Chapter)
}

// Key returns the chapter the unit addresses.
func (u WorkUnit) Key() ChapterKey {
	return ChapterKey{Book: u.Book, Chapter: u.Chapter}
}

// ExpectedVerses returns the canonical verse count for the unit's chapter.
func (u WorkUnit) ExpectedVerses() int {
	return ExpectedVerses(u.Book, u.Chapter)
}

// EnumerateWorkUnits lists every chapter of the canon for tr, in canonical
// order.
func EnumerateWorkUnits(tr Translation) []WorkUnit {
	units := make([]WorkUnit, 0, 1189)
	for _, b := range canon {
		for ch := 1; ch <= b.Chapters(); ch++ {
			units = append(units, WorkUnit{Translation: tr, Book: b.Name, Chapter: ch})
		}
	}
	return units
}

// UnitAttempt is the persisted record of the latest attempt on a WorkUnit.
type UnitAttempt struct {
	Unit        WorkUnit
	Status      UnitStatus
	Source      string
	Returned    int
	Accepted    int
	Error       string
	RunID       string
	AttemptedAt time.Time
}
