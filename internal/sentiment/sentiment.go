// Package sentiment scores feedback text with two independent methods and
// reconciles them into the label that gets persisted.
//
// The lexicon (compound) method is authoritative. The polarity method is
// computed alongside it and carried as advisory output only.
package sentiment

import (
	"fmt"
	"math"
	"sync"

	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
)

// Label thresholds. Polarity boundaries are exclusive, compound boundaries
// inclusive.
const (
	PolarityPositive = 0.1
	PolarityNegative = -0.1
	CompoundPositive = 0.05
	CompoundNegative = -0.05
)

// Scores are the proportions and compound score from a lexicon method.
type Scores struct {
	Neg      float64
	Neu      float64
	Pos      float64
	Compound float64
}

// LexiconMethod produces neg/neu/pos proportions and a compound score.
type LexiconMethod interface {
	PolarityScores(text string) Scores
}

// PolarityMethod produces a continuous polarity in [-1, 1].
type PolarityMethod interface {
	Polarity(text string) float64
}

// Verdict is a label with its confidence and raw score from a single method.
type Verdict struct {
	Label      feedback.Sentiment
	Confidence float64
	Score      float64
}

// FromPolarity labels a polarity score.
func FromPolarity(polarity float64) Verdict {
	label := feedback.Neutral
	switch {
	case polarity > PolarityPositive:
		label = feedback.Positive
	case polarity < PolarityNegative:
		label = feedback.Negative
	}
	return Verdict{Label: label, Confidence: math.Abs(polarity), Score: polarity}
}

// FromScores labels lexicon scores by their compound value.
func FromScores(s Scores) Verdict {
	label := feedback.Neutral
	switch {
	case s.Compound >= CompoundPositive:
		label = feedback.Positive
	case s.Compound <= CompoundNegative:
		label = feedback.Negative
	}
	return Verdict{
		Label:      label,
		Confidence: math.Max(s.Neg, math.Max(s.Neu, s.Pos)),
		Score:      s.Compound,
	}
}

// Analysis holds both verdicts for one text.
type Analysis struct {
	Primary   Verdict // lexicon method, persisted
	Secondary Verdict // polarity method, advisory
}

// Result converts the primary verdict into a persistable record with
// confidence and score rounded to two decimals.
func (a Analysis) Result(feedbackID int64) feedback.SentimentResult {
	return feedback.SentimentResult{
		FeedbackID: feedbackID,
		Sentiment:  a.Primary.Label,
		Confidence: Round2(a.Primary.Confidence),
		Score:      Round2(a.Primary.Score),
	}
}

// Agree reports whether both methods produced the same label.
func (a Analysis) Agree() bool {
	return a.Primary.Label == a.Secondary.Label
}

// Analyzer runs both methods. It holds no mutable state and is safe for
// concurrent use.
type Analyzer struct {
	lexicon  LexiconMethod
	polarity PolarityMethod
}

// New creates an analyzer from the two methods.
func New(lexicon LexiconMethod, polarity PolarityMethod) *Analyzer {
	return &Analyzer{lexicon: lexicon, polarity: polarity}
}

// Analyze scores normalized, non-empty text with both methods.
func (a *Analyzer) Analyze(text string) Analysis {
	return Analysis{
		Primary:   FromScores(a.lexicon.PolarityScores(text)),
		Secondary: FromPolarity(a.polarity.Polarity(text)),
	}
}

// Lexicon scores text with the authoritative method only.
func (a *Analyzer) Lexicon(text string) Verdict {
	return FromScores(a.lexicon.PolarityScores(text))
}

// Round2 rounds half away from zero to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

var (
	defaultOnce     sync.Once
	defaultAnalyzer *Analyzer
	defaultErr      error
)

// Default returns the process-wide analyzer. The lexicons are loaded on
// first use only.
func Default() (*Analyzer, error) {
	defaultOnce.Do(func() {
		defaultAnalyzer, defaultErr = NewFromEmbedded()
	})
	return defaultAnalyzer, defaultErr
}

// NewFromEmbedded builds a fresh analyzer: VADER as the lexicon method, and
// the averaged polarity method over the curated adjective weights, backed
// by the rescaled VADER word list for words the curated list lacks.
func NewFromEmbedded() (*Analyzer, error) {
	curated, err := loadEmbedded("polarity.txt")
	if err != nil {
		return nil, err
	}
	if len(curated) == 0 {
		return nil, fmt.Errorf("embedded polarity lexicon is empty")
	}
	vader := NewVaderScorer()
	return New(vader, NewPatternScorer(curated.WithFallback(vader.WordPolarities()))), nil
}
