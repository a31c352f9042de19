// Package rank scores transcript sentences by importance and selects the highlighted subset.
package rank

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Ranking factors.
const (
	KeyPhraseWeight = 18.0
	NumeralWeight   = 4.0
	MoneyWeight     = 5.0
	LengthWeight    = 0.05
)

// Highlight selection.
const (
	// ScoreThreshold is multiplied by the sentence count to get the minimum highlight score.
	ScoreThreshold = 0.35
	// MinItems is the number of top sentences taken when too few clear the threshold.
	MinItems = 5
)

var moneyPattern = regexp.MustCompile(`\$|\bdollars?\b|\bmoney\b`)

// Candidate is a finalized sentence and its position in the segment.
type Candidate struct {
	Index int
	Text  string
}

// Scored is a candidate's score and whether it was selected.
type Scored struct {
	Index       int
	Score       float64
	Highlighted bool
}

// Result holds every scored candidate in transcript order.
type Result struct {
	Sentences []Scored
}

// Highlighted returns the selected sentence indexes in transcript order.
func (r Result) Highlighted() []int {
	var out []int
	for _, s := range r.Sentences {
		if s.Highlighted {
			out = append(out, s.Index)
		}
	}
	return out
}

type keyPhrase struct {
	pattern *regexp.Regexp
	weight  float64
}

// PhraseWeight is the weight of the i-th of n key phrases ordered by descending rank.
func PhraseWeight(i, n int) float64 {
	if n <= 0 {
		return 0
	}
	return KeyPhraseWeight * math.Pow(1-float64(i)/float64(n), 3)
}

func compilePhrases(phrases []string) []keyPhrase {
	out := make([]keyPhrase, 0, len(phrases))
	for i, p := range phrases {
		if p == "" {
			continue
		}
		out = append(out, keyPhrase{
			pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(p) + `\b`),
			weight:  PhraseWeight(i, len(phrases)),
		})
	}
	return out
}

// Score computes the importance score of one sentence.
func Score(text string, phrases []string) float64 {
	return score(text, compilePhrases(phrases))
}

func score(text string, phrases []keyPhrase) float64 {
	var s float64
	for _, p := range phrases {
		s += float64(len(p.pattern.FindAllStringIndex(text, -1))) * p.weight
	}
	if strings.ContainsAny(text, "0123456789") {
		s += NumeralWeight
	}
	if moneyPattern.MatchString(text) {
		s += MoneyWeight
	}
	s += float64(utf8.RuneCountInString(text)) * LengthWeight
	return s
}

// Rank scores the candidates against key phrases (most salient first) and marks the
// highlighted subset. Candidates with empty text are ignored. The result depends only
// on its inputs.
func Rank(candidates []Candidate, keyPhrases []string) Result {
	phrases := compilePhrases(keyPhrases)

	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		if c.Text == "" {
			continue
		}
		scored = append(scored, Scored{Index: c.Index, Score: score(c.Text, phrases)})
	}
	if len(scored) == 0 {
		return Result{}
	}

	byScore := make([]int, len(scored))
	for i := range byScore {
		byScore[i] = i
	}
	sort.SliceStable(byScore, func(a, b int) bool {
		return scored[byScore[a]].Score > scored[byScore[b]].Score
	})

	threshold := ScoreThreshold * float64(len(scored))
	var selected []int
	for _, i := range byScore {
		if scored[i].Score >= threshold {
			selected = append(selected, i)
		}
	}
	if len(selected) < MinItems {
		selected = byScore[:min(MinItems, len(byScore))]
	}
	for _, i := range selected {
		scored[i].Highlighted = true
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Index < scored[b].Index
	})
	return Result{Sentences: scored}
}
