// Package extract parses raw recognized card text into typed candidate
// fields. Every field is best-effort: absence of a match is a normal
// outcome, not an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Fields holds the structured best-guess for one card. Year is a pointer
// because 0 is not a usable sentinel in JSON output; string fields use ""
// for unknown.
type Fields struct {
	Year       *int   `json:"year"`
	CardNumber string `json:"card_number,omitempty"`
	Player     string `json:"player,omitempty"`
	Brand      string `json:"brand,omitempty"`
	SetName    string `json:"set_name,omitempty"`
	// OCRText is the normalized recognized text the fields came from.
	OCRText string `json:"ocr_text"`
}

// Confidence shape: a capped, monotonically increasing function of how
// many fields were found. Never claims near-certainty.
const (
	confidenceBase     = 0.35
	confidencePerField = 0.12
	confidenceCap      = 0.9
)

// Name-candidate line limits.
const (
	nameMinLen   = 3
	nameMaxLen   = 40
	nameMaxWords = 4
)

var (
	yearRE   = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	cardNoRE = regexp.MustCompile(`(?i)(?:#\s*|No\.?\s*)([A-Za-z]*\d+[A-Za-z]*)`)
	nameRE   = regexp.MustCompile(`^[A-Za-z.'\- ]+$`)
)

// Extract parses raw OCR text into candidate fields plus a confidence
// in [0, 0.9]. It is pure: identical input always yields identical output.
func Extract(ocrText string) (Fields, float64) {
	var lines []string
	for _, ln := range strings.Split(ocrText, "\n") {
		if n := normalizeSpace(ln); n != "" {
			lines = append(lines, n)
		}
	}
	joined := strings.Join(lines, "\n")

	f := Fields{OCRText: joined}

	if m := yearRE.FindStringSubmatch(joined); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			f.Year = &y
		}
	}

	if m := cardNoRE.FindStringSubmatch(joined); m != nil {
		f.CardNumber = strings.TrimSpace(m[1])
	}

	f.Player = bestNameCandidate(lines)

	lower := strings.ToLower(strings.Join(lines, " "))
	f.Brand = firstVocabMatch(lower, brandVocab)
	f.SetName = firstVocabMatch(lower, setVocab)

	found := 0
	if f.Year != nil {
		found++
	}
	for _, s := range []string{f.CardNumber, f.Player, f.Brand, f.SetName} {
		if s != "" {
			found++
		}
	}
	confidence := confidenceBase + float64(found)*confidencePerField
	if confidence > confidenceCap {
		confidence = confidenceCap
	}
	return f, confidence
}

// bestNameCandidate picks the player-name guess among lines that look like
// a name: the right length, only name characters, 1-4 words, and none of
// the words on the manufacturer/product stop-list. Longer survivors win
// because full names beat fragments; ties keep the first occurrence.
func bestNameCandidate(lines []string) string {
	best := ""
	for _, ln := range lines {
		if len(ln) < nameMinLen || len(ln) > nameMaxLen {
			continue
		}
		if !nameRE.MatchString(ln) {
			continue
		}
		words := strings.Fields(ln)
		if len(words) < 1 || len(words) > nameMaxWords {
			continue
		}
		stopped := false
		for _, w := range words {
			if _, ok := nameStopWords[strings.ToLower(w)]; ok {
				stopped = true
				break
			}
		}
		if stopped {
			continue
		}
		if len(ln) > len(best) {
			best = ln
		}
	}
	return best
}

// normalizeSpace collapses internal whitespace runs to single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
