package sentiment

import (
	"github.com/jonreiter/govader"
)

// vaderScale maps VADER word valences (-4..4) onto the polarity scale.
const vaderScale = 0.25

// VaderScorer is the VADER valence-aware lexicon method: neg/neu/pos
// proportions and a normalized compound score.
type VaderScorer struct {
	sia *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer loads the VADER lexicon bundled with govader.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{sia: govader.NewSentimentIntensityAnalyzer()}
}

// PolarityScores scores text. Empty text yields zero scores.
func (v *VaderScorer) PolarityScores(text string) Scores {
	s := v.sia.PolarityScores(text)
	return Scores{Neg: s.Negative, Neu: s.Neutral, Pos: s.Positive, Compound: s.Compound}
}

// WordPolarities returns the VADER word entries rescaled to -1..1. Entries
// that are not plain lower-case words (emoticons, punctuation) are left out.
func (v *VaderScorer) WordPolarities() Lexicon {
	lex := make(Lexicon, len(v.sia.Lexicon))
	for word, valence := range v.sia.Lexicon {
		if !isPlainWord(word) {
			continue
		}
		lex[word] = valence * vaderScale
	}
	return lex
}

func isPlainWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
