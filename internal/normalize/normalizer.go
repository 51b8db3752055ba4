// Package normalize cleans raw verse text from external sources and assigns
// a thematic category to the result.
//
// Cleaning is a fixed pipeline:
//  1. HTML tags removed, entities decoded
//  2. attribution prefixes stripped ("John 3:16 in the KJV is: ")
//  3. leading verse-number artifacts stripped (29, 29¶, [29], (29), 29.)
//  4. whitespace collapsed and trimmed
//
// Every step is pure, so Normalize is deterministic.
package normalize

import (
	"regexp"
	"strings"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// Normalizer cleans verse text and categorizes it with an ordered rule table.
type Normalizer struct {
	rules []Rule
}

// New creates a Normalizer. A nil or empty rule list uses DefaultRules.
func New(rules []Rule) *Normalizer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	compiled := make([]Rule, 0, len(rules))
	for _, r := range rules {
		kw := strings.Join(words(r.Keyword), " ")
		if kw == "" {
			continue
		}
		compiled = append(compiled, Rule{Keyword: kw, Category: r.Category})
	}
	return &Normalizer{rules: compiled}
}

// Normalize returns the cleaned text and its category.
func (n *Normalizer) Normalize(raw string) (string, domain.Category) {
	clean := Clean(raw)
	return clean, n.Categorize(clean)
}

// Clean runs the cleaning pipeline without categorizing.
func Clean(raw string) string {
	s := stripHTML(raw)
	s = collapseSpace(s)
	s = stripAttribution(s)
	s = stripVerseNumber(s)
	return collapseSpace(s)
}

var attributionPatterns = buildAttributionPatterns()

func buildAttributionPatterns() []*regexp.Regexp {
	codes := make([]string, 0, 17)
	for _, t := range domain.AllTranslations() {
		codes = append(codes, regexp.QuoteMeta(t.String()))
	}
	alt := strings.Join(codes, "|")
	return []*regexp.Regexp{
		// "John 3:16 in the KJV is: ", "1 Cor 13:4-7 in the World English Bible is: "
		regexp.MustCompile(`^(?i)(?:[1-3]\s?)?[a-z][a-z .]*?\s\d+:\d+(?:-\d+)?\s+in the\s+[^:]{1,60}?\s+is:\s*`),
		// "(KJV) ", "[ASV] "
		regexp.MustCompile(`^[(\[](?:` + alt + `)[)\]]\s*`),
		// "KJV: "
		regexp.MustCompile(`^(?:` + alt + `):\s+`),
	}
}

func stripAttribution(s string) string {
	for _, re := range attributionPatterns {
		if loc := re.FindStringIndex(s); loc != nil && loc[1] < len(s) {
			return s[loc[1]:]
		}
	}
	return s
}

var verseNumberPatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`^\d{1,3}\s*¶\s*`), ""},
	{regexp.MustCompile(`^¶\s*`), ""},
	{regexp.MustCompile(`^\[\d{1,3}\]\s*`), ""},
	{regexp.MustCompile(`^\(\d{1,3}\)\s*`), ""},
	{regexp.MustCompile(`^\d{1,3}\.\s*`), ""},
	{regexp.MustCompile(`^\d{1,3}\s+`), ""},
	// digits glued to the first word: "29Come"
	{regexp.MustCompile(`^\d{1,3}([\pL"'“‘(])`), "$1"},
}

// stripVerseNumber removes one leading verse-number artifact, then a stray
// pilcrow if one follows it.
func stripVerseNumber(s string) string {
	for _, p := range verseNumberPatterns {
		if p.re.MatchString(s) {
			out := p.re.ReplaceAllString(s, p.repl)
			if out == "" {
				return s
			}
			return strings.TrimLeft(strings.TrimPrefix(out, "¶"), " ")
		}
	}
	return s
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
