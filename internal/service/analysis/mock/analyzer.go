// Package mock provides an offline analyzer for development and tests.
// Key phrases are the most frequent content words of the text; sentiment comes from
// a small word lexicon. Results are deterministic.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// MaxKeyPhrases bounds the number of phrases returned.
const MaxKeyPhrases = 10

// Neutral is the sentiment of text with no lexicon hits.
const Neutral = 0.5

var stopWords = map[string]bool{
	"about": true, "after": true, "again": true, "because": true, "before": true,
	"could": true, "there": true, "their": true, "these": true, "thing": true,
	"think": true, "those": true, "would": true, "which": true, "where": true,
	"while": true, "really": true, "should": true, "right": true, "thank": true,
	"thanks": true, "hello": true, "please": true,
}

var positiveWords = map[string]bool{
	"great": true, "good": true, "thanks": true, "thank": true, "perfect": true,
	"happy": true, "excellent": true, "love": true, "wonderful": true, "helpful": true,
	"appreciate": true, "awesome": true, "resolved": true, "yes": true,
}

var negativeWords = map[string]bool{
	"bad": true, "angry": true, "terrible": true, "cancel": true, "waiting": true,
	"problem": true, "broken": true, "charged": true, "refund": true, "wrong": true,
	"frustrated": true, "awful": true, "never": true, "complaint": true,
}

// Analyzer implements key phrase extraction and sentiment scoring without network calls.
type Analyzer struct {
	mu    sync.Mutex
	err   error
	calls int
}

// New creates a mock analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// FailWith makes subsequent calls return err. Pass nil to recover.
func (a *Analyzer) FailWith(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

// Calls returns the number of calls made so far.
func (a *Analyzer) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func (a *Analyzer) begin(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.err
}

func words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

// KeyPhrases returns content words of five or more letters ordered by frequency,
// ties broken by first occurrence.
func (a *Analyzer) KeyPhrases(ctx context.Context, text string) ([]string, error) {
	if err := a.begin(ctx); err != nil {
		return nil, err
	}

	counts := map[string]int{}
	var order []string
	for _, w := range words(text) {
		if len([]rune(w)) < 5 || stopWords[strings.ToLower(w)] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > MaxKeyPhrases {
		order = order[:MaxKeyPhrases]
	}
	return order, nil
}

// Sentiment scores text in [0, 1] from the share of positive lexicon hits.
func (a *Analyzer) Sentiment(ctx context.Context, text string) (float64, error) {
	if err := a.begin(ctx); err != nil {
		return 0, err
	}

	pos, neg := 0, 0
	for _, w := range words(text) {
		w = strings.ToLower(w)
		switch {
		case positiveWords[w]:
			pos++
		case negativeWords[w]:
			neg++
		}
	}
	if pos+neg == 0 {
		return Neutral, nil
	}
	return float64(pos) / float64(pos+neg), nil
}
