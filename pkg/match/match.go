// Package match scores extracted card fields against a checklist snapshot
// and ranks the closest entries.
package match

import (
	"math"
	"sort"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"cardtrack/pkg/extract"
)

// Entry is one checklist row as seen by the matcher. Zero values mean the
// field is absent; absent fields are excluded from scoring on both sides.
type Entry struct {
	ID         uint
	Sport      string
	Year       int
	Brand      string
	SetName    string
	Player     string
	Team       string
	CardNumber string
	Parallel   string
}

// Candidate is one ranked match. Display fields are denormalized copies of
// the entry so callers can present results without a second lookup.
type Candidate struct {
	ChecklistID uint    `json:"checklist_id"`
	Score       float64 `json:"score"`
	Year        int     `json:"year,omitempty"`
	Brand       string  `json:"brand,omitempty"`
	SetName     string  `json:"set_name,omitempty"`
	Player      string  `json:"player,omitempty"`
	CardNumber  string  `json:"card_number,omitempty"`
	Parallel    string  `json:"parallel,omitempty"`
}

// Field weights and the noise floor. Entries at or below minScore are
// assumed noise and silently dropped.
const (
	yearWeight       = 2.0
	cardNumberWeight = 2.0
	playerWeight     = 2.5
	brandWeight      = 1.5
	setNameWeight    = 1.5
	minScore         = 40.0
)

// DefaultLimit is the candidate count returned when the caller passes 0.
const DefaultLimit = 3

// accumulator folds independently-gated weighted comparisons so new
// comparable fields only need one more add call.
type accumulator struct {
	score  float64
	weight float64
}

func (a *accumulator) add(sim, w float64) {
	a.score += sim * w
	a.weight += w
}

func (a *accumulator) value() float64 {
	if a.weight == 0 {
		return 0
	}
	return a.score / a.weight
}

// Score computes the weighted similarity (0-100) between the extracted
// fields and one checklist entry. A field missing on either side
// contributes to neither the numerator nor the weight total, so
// incomplete data is not penalized.
func Score(f extract.Fields, e Entry) float64 {
	var acc accumulator

	if f.Year != nil && e.Year != 0 {
		sim := 0.0
		if *f.Year == e.Year {
			sim = 100.0
		}
		acc.add(sim, yearWeight)
	}
	if f.CardNumber != "" && e.CardNumber != "" {
		acc.add(float64(fuzzy.Ratio(f.CardNumber, e.CardNumber)), cardNumberWeight)
	}
	if f.Player != "" && e.Player != "" {
		acc.add(float64(fuzzy.TokenSetRatio(f.Player, e.Player)), playerWeight)
	}
	if f.Brand != "" && e.Brand != "" {
		acc.add(float64(fuzzy.TokenSetRatio(f.Brand, e.Brand)), brandWeight)
	}
	if f.SetName != "" && e.SetName != "" {
		acc.add(float64(fuzzy.TokenSetRatio(f.SetName, e.SetName)), setNameWeight)
	}

	return acc.value()
}

// Rank scores every entry, drops scores at or below the noise floor, and
// returns at most limit candidates sorted by descending score. Exact ties
// keep input order. Scores are rounded to 2 decimal places.
func Rank(f extract.Fields, entries []Entry, limit int) []Candidate {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var out []Candidate
	for _, e := range entries {
		s := Score(f, e)
		if s <= minScore {
			continue
		}
		out = append(out, Candidate{
			ChecklistID: e.ID,
			Score:       math.Round(s*100) / 100,
			Year:        e.Year,
			Brand:       e.Brand,
			SetName:     e.SetName,
			Player:      e.Player,
			CardNumber:  e.CardNumber,
			Parallel:    e.Parallel,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
