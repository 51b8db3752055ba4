package domain

import (
	"fmt"
	"strings"
)

// Translation is a target Bible translation code.
type Translation string

const (
	TranslationKJV   Translation = "KJV"
	TranslationNKJV  Translation = "NKJV"
	TranslationASV   Translation = "ASV"
	TranslationWEB   Translation = "WEB"
	TranslationYLT   Translation = "YLT"
	TranslationDARBY Translation = "DARBY"
	TranslationBBE   Translation = "BBE"
	TranslationWBT   Translation = "WBT"
	TranslationNIV   Translation = "NIV"
	TranslationESV   Translation = "ESV"
	TranslationNASB  Translation = "NASB"
	TranslationNLT   Translation = "NLT"
	TranslationCSB   Translation = "CSB"
	TranslationNRSV  Translation = "NRSV"
	TranslationRSV   Translation = "RSV"
	TranslationAMP   Translation = "AMP"
	TranslationMSG   Translation = "MSG"
)

var allTranslations = []Translation{
	TranslationKJV, TranslationNKJV, TranslationASV, TranslationWEB, TranslationYLT,
	TranslationDARBY, TranslationBBE, TranslationWBT, TranslationNIV, TranslationESV,
	TranslationNASB, TranslationNLT, TranslationCSB, TranslationNRSV, TranslationRSV,
	TranslationAMP, TranslationMSG,
}

// AllTranslations returns every supported translation code.
func AllTranslations() []Translation {
	out := make([]Translation, len(allTranslations))
	copy(out, allTranslations)
	return out
}

func (t Translation) String() string { return string(t) }

func (t Translation) IsValid() bool {
	for _, v := range allTranslations {
		if v == t {
			return true
		}
	}
	return false
}

// ParseTranslation converts a code such as "kjv" into a Translation.
func ParseTranslation(s string) (Translation, error) {
	t := Translation(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTranslation, s)
	}
	return t, nil
}

// ParseTranslations parses a comma-separated list of codes. Duplicates are
// dropped, order is preserved.
func ParseTranslations(raw string) ([]Translation, error) {
	var out []Translation
	seen := make(map[Translation]bool)
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := ParseTranslation(part)
		if err != nil {
			return nil, err
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

// Category is a thematic tag assigned to a verse.
type Category string

const (
	CategoryLove        Category = "Love"
	CategoryFaith       Category = "Faith"
	CategoryHope        Category = "Hope"
	CategoryPeace       Category = "Peace"
	CategoryStrength    Category = "Strength"
	CategoryWisdom      Category = "Wisdom"
	CategoryComfort     Category = "Comfort"
	CategoryForgiveness Category = "Forgiveness"
	CategoryJoy         Category = "Joy"
	CategoryGrace       Category = "Grace"
	CategoryWorship     Category = "Worship"
	CategoryCore        Category = "Core"
)

var allCategories = []Category{
	CategoryLove, CategoryFaith, CategoryHope, CategoryPeace, CategoryStrength, CategoryWisdom,
	CategoryComfort, CategoryForgiveness, CategoryJoy, CategoryGrace, CategoryWorship, CategoryCore,
}

func (c Category) String() string { return string(c) }

func (c Category) IsValid() bool {
	for _, v := range allCategories {
		if v == c {
			return true
		}
	}
	return false
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range allCategories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// UnitStatus is the recorded result of the latest attempt on a WorkUnit.
type UnitStatus string

const (
	UnitStatusPersisted UnitStatus = "persisted"
	UnitStatusPartial   UnitStatus = "partial"
	UnitStatusGapped    UnitStatus = "gapped"
)

func (s UnitStatus) String() string { return string(s) }

func (s UnitStatus) IsValid() bool {
	switch s {
	case UnitStatusPersisted, UnitStatusPartial, UnitStatusGapped:
		return true
	}
	return false
}
