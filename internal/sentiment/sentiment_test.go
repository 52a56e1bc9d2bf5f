package sentiment

import (
	"math"
	"strings"
	"testing"

	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
)

type stubLexicon struct{ scores Scores }

func (s stubLexicon) PolarityScores(string) Scores { return s.scores }

type stubPolarity struct{ polarity float64 }

func (s stubPolarity) Polarity(string) float64 { return s.polarity }

func TestFromScoresBoundaries(t *testing.T) {
	cases := []struct {
		compound float64
		want     feedback.Sentiment
	}{
		{0.05, feedback.Positive},
		{-0.05, feedback.Negative},
		{0.0, feedback.Neutral},
		{0.0499, feedback.Neutral},
		{-0.0499, feedback.Neutral},
		{0.9, feedback.Positive},
		{-0.9, feedback.Negative},
	}
	for _, c := range cases {
		got := FromScores(Scores{Compound: c.compound})
		if got.Label != c.want {
			t.Errorf("compound %v: expected %s, got %s", c.compound, c.want, got.Label)
		}
	}
}

func TestFromPolarityBoundaries(t *testing.T) {
	cases := []struct {
		polarity float64
		want     feedback.Sentiment
	}{
		{0.1, feedback.Neutral},
		{-0.1, feedback.Neutral},
		{0.0, feedback.Neutral},
		{0.1001, feedback.Positive},
		{-0.1001, feedback.Negative},
	}
	for _, c := range cases {
		got := FromPolarity(c.polarity)
		if got.Label != c.want {
			t.Errorf("polarity %v: expected %s, got %s", c.polarity, c.want, got.Label)
		}
	}
}

func TestVerdictConfidence(t *testing.T) {
	v := FromPolarity(-0.4)
	if v.Confidence != 0.4 {
		t.Errorf("expected confidence 0.4, got %v", v.Confidence)
	}
	s := FromScores(Scores{Neg: 0.2, Neu: 0.5, Pos: 0.3, Compound: 0.1})
	if s.Confidence != 0.5 {
		t.Errorf("expected confidence 0.5 (max of proportions), got %v", s.Confidence)
	}
	if s.Score != 0.1 {
		t.Errorf("expected score 0.1, got %v", s.Score)
	}
}

func TestAnalyzeLexiconIsAuthoritative(t *testing.T) {
	a := New(
		stubLexicon{Scores{Neg: 0.1, Neu: 0.2, Pos: 0.7, Compound: 0.6789}},
		stubPolarity{-0.5},
	)
	analysis := a.Analyze("anything")
	if analysis.Secondary.Label != feedback.Negative {
		t.Errorf("expected advisory label negative, got %s", analysis.Secondary.Label)
	}
	if analysis.Agree() {
		t.Error("expected methods to disagree")
	}

	r := analysis.Result(42)
	if r.FeedbackID != 42 {
		t.Errorf("expected feedback id 42, got %d", r.FeedbackID)
	}
	if r.Sentiment != feedback.Positive {
		t.Errorf("expected persisted label positive, got %s", r.Sentiment)
	}
	if r.Confidence != 0.7 {
		t.Errorf("expected confidence 0.7, got %v", r.Confidence)
	}
	if r.Score != 0.68 {
		t.Errorf("expected score 0.68, got %v", r.Score)
	}
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		0.456:   0.46,
		-0.3333: -0.33,
		0.999:   1,
		0.0:     0,
		-0.004:  0,
		0.6370:  0.64,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Errorf("Round2(%v): expected %v, got %v", in, want, got)
		}
	}
}

func TestResultAlwaysTwoDecimals(t *testing.T) {
	a, err := NewFromEmbedded()
	if err != nil {
		t.Fatalf("NewFromEmbedded: %v", err)
	}
	texts := []string{
		"i love this app",
		"this app is so slow and keeps crashing urgent fix needed",
		"not good but not terrible either",
		"the checkout page opened",
		"absolutely amazing support team very helpful thanks",
		"worst billing experience ever i want a refund",
	}
	for _, text := range texts {
		r := a.Analyze(text).Result(1)
		for _, v := range []float64{r.Confidence, r.Score} {
			scaled := v * 100
			if math.Abs(scaled-math.Round(scaled)) > 1e-9 {
				t.Errorf("%q: value %v has more than two decimals", text, v)
			}
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			t.Errorf("%q: confidence %v out of range", text, r.Confidence)
		}
		if r.Score < -1 || r.Score > 1 {
			t.Errorf("%q: score %v out of range", text, r.Score)
		}
	}
}

func TestVaderScorer(t *testing.T) {
	v := NewVaderScorer()

	s := v.PolarityScores("i love this app")
	if math.Abs(s.Compound-0.6369) > 1e-3 {
		t.Errorf("expected compound 0.6369, got %v", s.Compound)
	}
	if s.Pos <= 0 || s.Neg != 0 {
		t.Errorf("unexpected proportions: %+v", s)
	}

	if neg := v.PolarityScores("not good"); neg.Compound >= 0 {
		t.Errorf("expected negated compound < 0, got %v", neg.Compound)
	}

	plain := v.PolarityScores("good")
	boosted := v.PolarityScores("very good")
	if boosted.Compound <= plain.Compound {
		t.Errorf("expected booster to raise compound: %v <= %v", boosted.Compound, plain.Compound)
	}

	neutral := v.PolarityScores("the package arrived on tuesday")
	if neutral.Compound != 0 {
		t.Errorf("expected zero compound, got %+v", neutral)
	}

	if empty := v.PolarityScores(""); empty != (Scores{}) {
		t.Errorf("expected zero scores for empty text, got %+v", empty)
	}
}

func TestVaderLabels(t *testing.T) {
	a, err := NewFromEmbedded()
	if err != nil {
		t.Fatalf("NewFromEmbedded: %v", err)
	}
	cases := []struct {
		text     string
		want     feedback.Sentiment
		compound float64
	}{
		{"the checkout keeps failing and support ignored me", feedback.Negative, -0.44},
		{"customer service was rude and unhelpful", feedback.Negative, -0.46},
		{"this update is a disaster", feedback.Negative, -0.62},
		{"i love this app", feedback.Positive, 0.64},
		{"the package arrived on tuesday", feedback.Neutral, 0},
	}
	for _, tc := range cases {
		v := a.Lexicon(tc.text)
		if v.Label != tc.want {
			t.Errorf("%q: expected %s, got %s (compound %v)", tc.text, tc.want, v.Label, v.Score)
		}
		if got := Round2(v.Score); got != tc.compound {
			t.Errorf("%q: expected compound %v, got %v", tc.text, tc.compound, got)
		}
	}
}

func TestWordPolarities(t *testing.T) {
	lex := NewVaderScorer().WordPolarities()
	if len(lex) < 5000 {
		t.Errorf("expected the full VADER word list, got %d entries", len(lex))
	}
	if got := lex["disaster"]; math.Abs(got-(-0.775)) > 1e-9 {
		t.Errorf("expected disaster rescaled to -0.775, got %v", got)
	}
	for w, v := range lex {
		if !isPlainWord(w) {
			t.Errorf("unexpected non-word entry %q", w)
		}
		if v < -1 || v > 1 {
			t.Errorf("%q: weight %v out of range", w, v)
		}
	}
}

func TestWithFallback(t *testing.T) {
	curated := Lexicon{"great": 0.8}
	merged := curated.WithFallback(Lexicon{"great": 0.775, "rude": -0.5})
	if merged["great"] != 0.8 {
		t.Errorf("expected curated weight to win, got %v", merged["great"])
	}
	if merged["rude"] != -0.5 {
		t.Errorf("expected fallback weight for rude, got %v", merged["rude"])
	}
	if _, ok := curated["rude"]; ok {
		t.Error("expected the receiver to be left unchanged")
	}
}

func TestPatternScorer(t *testing.T) {
	p := NewPatternScorer(Lexicon{"great": 0.8, "good": 0.7, "bad": -0.7})

	if got := p.Polarity("great app"); got != 0.8 {
		t.Errorf("expected 0.8, got %v", got)
	}
	if got := p.Polarity("not great"); got != -0.4 {
		t.Errorf("expected -0.4, got %v", got)
	}
	if got := p.Polarity("very good"); math.Abs(got-0.91) > 1e-9 {
		t.Errorf("expected 0.91, got %v", got)
	}
	if got := p.Polarity("good and bad"); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	if got := p.Polarity("nothing known here"); got != 0 {
		t.Errorf("expected 0 for unknown words, got %v", got)
	}
}

func TestEmbeddedAnalyzer(t *testing.T) {
	a, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	again, _ := Default()
	if a != again {
		t.Error("expected Default to return the same analyzer")
	}

	if got := a.Analyze("i love this great app").Primary.Label; got != feedback.Positive {
		t.Errorf("expected positive, got %s", got)
	}
	if got := a.Analyze("terrible awful experience").Primary.Label; got != feedback.Negative {
		t.Errorf("expected negative, got %s", got)
	}
	if got := a.Analyze("the app opened").Primary.Label; got != feedback.Neutral {
		t.Errorf("expected neutral, got %s", got)
	}
	// Words missing from the curated adjective list fall back to VADER.
	if got := a.Analyze("this update is a disaster").Secondary.Label; got != feedback.Negative {
		t.Errorf("expected advisory negative, got %s", got)
	}
}

func TestParseLexicon(t *testing.T) {
	lex, err := ParseLexicon(strings.NewReader("# comment\n\ngood\t1.9\nBAD -2.5\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lex["good"] != 1.9 || lex["bad"] != -2.5 {
		t.Errorf("unexpected lexicon: %v", lex)
	}

	if _, err := ParseLexicon(strings.NewReader("lonely\n")); err == nil {
		t.Error("expected error for missing weight")
	}
	if _, err := ParseLexicon(strings.NewReader("word abc\n")); err == nil {
		t.Error("expected error for invalid weight")
	}
}
