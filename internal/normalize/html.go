package normalize

import (
	"strings"

	"golang.org/x/net/html"
)

// skipped elements contribute no text (footnote markers, scripts).
var skipped = map[string]bool{"sup": true, "script": true, "style": true}

// stripHTML drops tags and decodes entities. Block-level breaks become
// spaces so words on either side stay apart.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	z := html.NewTokenizer(strings.NewReader(s))
	depth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if depth == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipped[tag] {
				depth++
			}
			if tag == "br" || tag == "p" || tag == "div" {
				b.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipped[tag] && depth > 0 {
				depth--
			}
			if tag == "p" || tag == "div" {
				b.WriteByte(' ')
			}
		}
	}
}
