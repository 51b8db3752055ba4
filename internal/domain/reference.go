package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Reference identifies a single verse in the canon.
type Reference struct {
	Book    string
	Chapter int
	Verse   int
}

// String formats the reference as "<Book> <chapter>:<verse>".
func (r Reference) String() string {
	return FormatReference(r.Book, r.Chapter, r.Verse)
}

// FormatReference builds the canonical reference string, e.g. "John 3:16".
func FormatReference(book string, chapter, verse int) string {
	return book + " " + strconv.Itoa(chapter) + ":" + strconv.Itoa(verse)
}

// ParseReference parses "<Book> <chapter>:<verse>" and validates it against
// the canon. The returned Book is the canonical book name.
func ParseReference(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	sp := strings.LastIndexByte(s, ' ')
	if sp <= 0 {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidReference, s)
	}

	chStr, vStr, ok := strings.Cut(s[sp+1:], ":")
	if !ok {
		return Reference{}, fmt.Errorf("%w: %q: missing chapter:verse", ErrInvalidReference, s)
	}
	chapter, err := strconv.Atoi(chStr)
	if err != nil || chapter < 1 {
		return Reference{}, fmt.Errorf("%w: %q: bad chapter", ErrInvalidReference, s)
	}
	verse, err := strconv.Atoi(vStr)
	if err != nil || verse < 1 {
		return Reference{}, fmt.Errorf("%w: %q: bad verse", ErrInvalidReference, s)
	}

	book, ok := LookupBook(s[:sp])
	if !ok {
		return Reference{}, fmt.Errorf("%w: %q", ErrUnknownBook, s[:sp])
	}
	if verse > book.VerseCount(chapter) {
		return Reference{}, fmt.Errorf("%w: %q: beyond %s", ErrInvalidReference, s, book.Name)
	}

	return Reference{Book: book.Name, Chapter: chapter, Verse: verse}, nil
}
