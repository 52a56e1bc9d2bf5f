package detect

import (
	"strings"

	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
)

// Category is an issue category key.
type Category string

const (
	Performance Category = "performance"
	UIUX        Category = "ui_ux"
	Payment     Category = "payment"
	Features    Category = "features"
)

// Label renders the key for storage, e.g. "ui_ux" -> "Ui/Ux".
func (c Category) Label() string {
	return titleCase(strings.ReplaceAll(string(c), "_", "/"))
}

type issueRule struct {
	category Category
	keywords []string
}

// issueRules is evaluated in order; output follows the same order.
var issueRules = []issueRule{
	{Performance, []string{"slow", "crash", "freeze", "lag", "loading", "timeout"}},
	{UIUX, []string{"confusing", "difficult", "hard", "navigate", "interface", "design"}},
	{Payment, []string{"payment", "billing", "charge", "refund", "transaction"}},
	{Features, []string{"missing", "need", "want", "request", "add", "feature"}},
}

var (
	severityHigh   = []string{"urgent", "critical", "broken", "crash"}
	severityMedium = []string{"slow", "sometimes", "occasionally"}
)

// Categories returns the issue categories in evaluation order.
func Categories() []Category {
	out := make([]Category, len(issueRules))
	for i, r := range issueRules {
		out[i] = r.category
	}
	return out
}

// Issues returns at most one issue per category. A category fires on the
// first of its keywords found as a substring of text. Severity is judged
// from the whole text, not the matched keyword.
func Issues(text string, feedbackID int64) []feedback.Issue {
	lower := strings.ToLower(text)
	var issues []feedback.Issue
	for _, rule := range issueRules {
		for _, kw := range rule.keywords {
			if !strings.Contains(lower, kw) {
				continue
			}
			issues = append(issues, feedback.Issue{
				FeedbackID:  feedbackID,
				Category:    rule.category.Label(),
				Description: titleCase(kw) + " related issue",
				Severity:    level(lower, severityHigh, severityMedium),
			})
			break
		}
	}
	return issues
}
