package dashboard

import (
	"fmt"

	"golang.org/x/text/language"
)

// Comparison is the prior period matched against the current range.
type Comparison struct {
	Range DateRange `json:"range"`
	Days  int       `json:"days"`
	Text  string    `json:"text"`
}

type phraseCatalog struct {
	yesterday string
	week      string
	month     string
	quarter   string
	year      string
	days      string
}

var (
	supportedLanguages = []language.Tag{language.English, language.Spanish}
	languageMatcher    = language.NewMatcher(supportedLanguages)

	catalogs = map[language.Base]phraseCatalog{
		base(language.English): {
			yesterday: "yesterday",
			week:      "the previous week",
			month:     "the previous month",
			quarter:   "the previous quarter",
			year:      "the previous year",
			days:      "the previous %d days",
		},
		base(language.Spanish): {
			yesterday: "ayer",
			week:      "la semana anterior",
			month:     "el mes anterior",
			quarter:   "el trimestre anterior",
			year:      "el año anterior",
			days:      "los %d días anteriores",
		},
	}
)

func base(tag language.Tag) language.Base {
	b, _ := tag.Base()
	return b
}

// MatchLanguage resolves an Accept-Language header to a supported tag, English by default.
func MatchLanguage(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, _ := languageMatcher.Match(tags...)
	return supportedLanguages[idx]
}

// ResolveComparison derives the contiguous prior period of r and its English phrase.
func ResolveComparison(r DateRange) Comparison {
	return ResolveComparisonIn(r, language.English)
}

// ResolveComparisonIn is ResolveComparison with a localized phrase.
func ResolveComparisonIn(r DateRange, lang language.Tag) Comparison {
	days := r.Days()
	if days < 1 {
		// single-day range compares against the day before
		days = 1
	}
	prior := DateRange{
		From: r.From.AddDate(0, 0, -days),
		To:   r.From.AddDate(0, 0, -1),
	}
	return Comparison{Range: prior, Days: days, Text: ComparisonText(days, lang)}
}

// ComparisonText describes a prior period of the given length.
func ComparisonText(days int, lang language.Tag) string {
	catalog, ok := catalogs[base(lang)]
	if !ok {
		catalog = catalogs[base(language.English)]
	}
	switch days {
	case 1:
		return catalog.yesterday
	case 7:
		return catalog.week
	case 30:
		return catalog.month
	case 90:
		return catalog.quarter
	case 365:
		return catalog.year
	default:
		return fmt.Sprintf(catalog.days, days)
	}
}
