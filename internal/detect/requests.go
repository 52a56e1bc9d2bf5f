package detect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
)

// FeatureRequestCategory is the category stored for every detected request.
const FeatureRequestCategory = "General"

// requestPatterns is evaluated in order; the first match wins.
var requestPatterns = []*regexp.Regexp{
	regexp.MustCompile(`need.*(?:feature|option|ability)`),
	regexp.MustCompile(`want.*(?:feature|option|ability)`),
	regexp.MustCompile(`request.*(?:feature|option|ability)`),
	regexp.MustCompile(`would.*like.*(?:feature|option|ability)`),
	regexp.MustCompile(`please.*add`),
	regexp.MustCompile(`should.*have`),
}

var (
	priorityHigh   = []string{"urgent", "really", "desperately", "badly"}
	priorityMedium = []string{"would like", "prefer", "nice"}
)

// FeatureRequests returns at most one request: the first matching pattern
// produces a record and detection stops.
//
// The feature name is a placeholder naming the feedback id. Candidate terms
// are extracted for each match but are not yet used to name the feature.
func FeatureRequests(text string, feedbackID int64) []feedback.FeatureRequest {
	lower := strings.ToLower(text)
	for _, p := range requestPatterns {
		if !p.MatchString(lower) {
			continue
		}
		_ = CandidateTerms(lower)
		return []feedback.FeatureRequest{{
			FeedbackID:  feedbackID,
			FeatureName: fmt.Sprintf("Requested feature from feedback %d", feedbackID),
			Priority:    level(lower, priorityHigh, priorityMedium),
			Category:    FeatureRequestCategory,
		}}
	}
	return nil
}

// CandidateTerms tokenizes text and drops stopwords and tokens of two
// characters or fewer.
func CandidateTerms(text string) []string {
	var terms []string
	for _, tok := range tokenize(text) {
		w := strings.ToLower(tok)
		if len(w) <= 2 || stopwords[w] {
			continue
		}
		terms = append(terms, w)
	}
	return terms
}

func tokenize(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return strings.Fields(text)
	}
	toks := doc.Tokens()
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Text)
	}
	return out
}
