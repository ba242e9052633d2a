package extract

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// brandVocab and setVocab are ordered lookup tables; the first entry that
// appears as a substring of the lowercased text wins, so declaration order
// is the tie-break.
var brandVocab = []string{
	"upper deck",
	"panini",
	"topps",
	"donruss",
	"score",
	"fleer",
	"opc",
	"o-pee-chee",
	"bowman",
}

var setVocab = []string{
	"prizm",
	"select",
	"optic",
	"donruss optic",
	"young guns",
	"series 1",
	"series 2",
	"mvp",
	"artifacts",
}

// nameStopWords are manufacturer/product terms that disqualify a line from
// being a player-name candidate.
var nameStopWords = map[string]struct{}{
	"rookie":  {},
	"upper":   {},
	"deck":    {},
	"panini":  {},
	"topps":   {},
	"score":   {},
	"donruss": {},
	"prizm":   {},
	"select":  {},
	"stadium": {},
}

var titleCaser = cases.Title(language.AmericanEnglish)

// firstVocabMatch scans vocab in declared order and returns the first
// entry found as a substring of lower, rendered in title case.
func firstVocabMatch(lower string, vocab []string) string {
	for _, v := range vocab {
		if strings.Contains(lower, v) {
			return titleCaser.String(v)
		}
	}
	return ""
}
