package sentiment

import (
	"math"
	"strings"
)

var intensifiers = map[string]float64{
	"very":       1.3,
	"really":     1.3,
	"so":         1.3,
	"extremely":  1.5,
	"incredibly": 1.5,
	"too":        1.2,
	"super":      1.4,
	"quite":      1.1,
	"pretty":     1.1,
	"slightly":   0.5,
	"somewhat":   0.7,
}

var polarityNegations = toSet("not", "never", "no", "dont", "isnt", "wasnt", "doesnt", "didnt", "cant", "wont")

const polarityNegationScalar = -0.5

// PatternScorer averages the polarity of known adjectives, scaling by a
// preceding intensifier and flipping under a preceding negation.
type PatternScorer struct {
	lexicon Lexicon
}

// NewPatternScorer creates a scorer over the given lexicon. Weights are
// expected on a -1..1 scale.
func NewPatternScorer(lex Lexicon) *PatternScorer {
	return &PatternScorer{lexicon: lex}
}

// Polarity returns the mean polarity of the scored words in text, or 0 when
// no word is known.
func (p *PatternScorer) Polarity(text string) float64 {
	words := strings.Fields(text)
	var sum float64
	var n int
	for i, w := range words {
		val, ok := p.lexicon[w]
		if !ok {
			continue
		}
		if i > 0 {
			if m, ok := intensifiers[words[i-1]]; ok {
				val *= m
			}
		}
		for j := 1; j <= 2 && i-j >= 0; j++ {
			if polarityNegations[words[i-j]] {
				val *= polarityNegationScalar
				break
			}
		}
		sum += math.Max(-1, math.Min(1, val))
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Max(-1, math.Min(1, sum/float64(n)))
}

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
