package normalize

import (
	"strings"
	"unicode"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// Rule maps a keyword (one word or a phrase) to a category. Rules are
// evaluated in order; the first rule whose keyword occurs wins.
type Rule struct {
	Keyword  string
	Category domain.Category
}

// defaultTable lists keywords per category, in evaluation order.
var defaultTable = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategoryLove, []string{"love", "loved", "loveth", "lovingkindness", "beloved", "charity"}},
	{domain.CategoryFaith, []string{"faith", "faithful", "believe", "believed", "believeth", "trust"}},
	{domain.CategoryHope, []string{"hope", "hoped", "expectation"}},
	{domain.CategoryPeace, []string{"peace", "rest", "quiet"}},
	{domain.CategoryStrength, []string{"strength", "strong", "strengthen", "mighty", "power", "courage"}},
	{domain.CategoryWisdom, []string{"wisdom", "wise", "understanding", "knowledge", "instruction"}},
	{domain.CategoryComfort, []string{"comfort", "comforted", "heavy laden", "refuge", "shepherd", "mourn"}},
	{domain.CategoryForgiveness, []string{"forgive", "forgiven", "forgiveness", "mercy", "merciful", "pardon"}},
	{domain.CategoryJoy, []string{"joy", "rejoice", "glad", "gladness", "delight"}},
	{domain.CategoryGrace, []string{"grace", "gracious", "favour", "favor"}},
	{domain.CategoryWorship, []string{"praise", "worship", "glory", "sing", "hallelujah", "alleluia"}},
}

// DefaultRules returns the built-in keyword table flattened into rules.
func DefaultRules() []Rule {
	var rules []Rule
	for _, row := range defaultTable {
		for _, kw := range row.keywords {
			rules = append(rules, Rule{Keyword: kw, Category: row.category})
		}
	}
	return rules
}

// Rules returns the normalizer's effective rule table.
func (n *Normalizer) Rules() []Rule {
	out := make([]Rule, len(n.rules))
	copy(out, n.rules)
	return out
}

// Categorize returns the category of the first rule whose keyword occurs in
// text as whole words, or CategoryCore when none does.
func (n *Normalizer) Categorize(text string) domain.Category {
	ws := words(text)
	if len(ws) == 0 {
		return domain.CategoryCore
	}
	padded := " " + strings.Join(ws, " ") + " "
	for _, r := range n.rules {
		if strings.Contains(padded, " "+r.Keyword+" ") {
			return r.Category
		}
	}
	return domain.CategoryCore
}

// words lowercases s and splits it on anything that is not a letter,
// digit or apostrophe.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
