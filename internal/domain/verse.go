package domain

import (
	"time"
	"unicode/utf8"
)

// DefaultMaxTextLength is the sanity bound for verse text. Longer text
// signals malformed source data.
const DefaultMaxTextLength = 2000

// VerseRecord is a single translated verse. (Reference, Translation) is the
// natural key.
type VerseRecord struct {
	Reference   string
	Book        string
	Chapter     int
	Verse       int
	Text        string
	Translation Translation
	Category    Category
	Source      string
	CreatedAt   time.Time
}

// NewVerseRecord builds a record with its reference derived from the book,
// chapter and verse.
func NewVerseRecord(tr Translation, book string, chapter, verse int, text string, cat Category, source string) VerseRecord {
	return VerseRecord{
		Reference:   FormatReference(book, chapter, verse),
		Book:        book,
		Chapter:     chapter,
		Verse:       verse,
		Text:        text,
		Translation: tr,
		Category:    cat,
		Source:      source,
		CreatedAt:   time.Now().UTC(),
	}
}

// Validate checks the record against the canon and the text bound.
// maxText <= 0 uses DefaultMaxTextLength.
func (v VerseRecord) Validate(maxText int) error {
	if maxText <= 0 {
		maxText = DefaultMaxTextLength
	}

	var errs []FieldError
	if !v.Translation.IsValid() {
		errs = append(errs, FieldError{Field: "translation", Message: "unknown code"})
	}
	book, ok := LookupBook(v.Book)
	switch {
	case !ok || book.Name != v.Book:
		errs = append(errs, FieldError{Field: "book", Message: "not a canonical book name"})
	case v.Chapter < 1 || v.Chapter > book.Chapters():
		errs = append(errs, FieldError{Field: "chapter", Message: "out of range"})
	case v.Verse < 1 || v.Verse > book.VerseCount(v.Chapter):
		errs = append(errs, FieldError{Field: "verse", Message: "out of range"})
	}
	if v.Reference != FormatReference(v.Book, v.Chapter, v.Verse) {
		errs = append(errs, FieldError{Field: "reference", Message: "does not match book/chapter/verse"})
	}
	switch n := utf8.RuneCountInString(v.Text); {
	case n == 0:
		errs = append(errs, FieldError{Field: "text", Message: "required"})
	case n > maxText:
		errs = append(errs, FieldError{Field: "text", Message: "exceeds length bound"})
	}
	if !v.Category.IsValid() {
		errs = append(errs, FieldError{Field: "category", Message: "unknown category"})
	}

	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}
