package detect

import (
	"testing"

	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
)

func TestIssuesSlowCrashingUrgent(t *testing.T) {
	issues := Issues("this app is so slow and keeps crashing urgent fix needed", 1)

	var perf *feedback.Issue
	for i := range issues {
		if issues[i].Category == "Performance" {
			perf = &issues[i]
		}
	}
	if perf == nil {
		t.Fatalf("expected a Performance issue, got %+v", issues)
	}
	if perf.Severity != feedback.High {
		t.Errorf("expected severity high, got %s", perf.Severity)
	}
	if perf.Description != "Slow related issue" {
		t.Errorf("expected first matching keyword in description, got %q", perf.Description)
	}
	if perf.FeedbackID != 1 {
		t.Errorf("expected feedback id 1, got %d", perf.FeedbackID)
	}
}

func TestIssuesAtMostOnePerCategory(t *testing.T) {
	text := "slow crash freeze lag loading timeout confusing difficult hard navigate " +
		"interface design payment billing charge refund transaction missing need want " +
		"request add feature"
	issues := Issues(text, 7)
	if len(issues) != 4 {
		t.Fatalf("expected 4 issues, got %d", len(issues))
	}

	want := []string{"Performance", "Ui/Ux", "Payment", "Features"}
	for i, w := range want {
		if issues[i].Category != w {
			t.Errorf("issue %d: expected category %q, got %q", i, w, issues[i].Category)
		}
	}
}

func TestIssuesNone(t *testing.T) {
	if issues := Issues("i would like a dark mode option please", 2); len(issues) != 0 {
		t.Errorf("expected no issues, got %+v", issues)
	}
	if issues := Issues("", 3); len(issues) != 0 {
		t.Errorf("expected no issues for empty text, got %+v", issues)
	}
}

func TestIssueSeverity(t *testing.T) {
	cases := []struct {
		text string
		want feedback.Level
	}{
		{"payment page is broken", feedback.High},
		{"critical billing problem", feedback.High},
		{"the interface is slow", feedback.Medium},
		{"billing sometimes fails", feedback.Medium},
		{"refund took a week", feedback.Low},
	}
	for _, c := range cases {
		issues := Issues(c.text, 1)
		if len(issues) == 0 {
			t.Fatalf("%q: expected at least one issue", c.text)
		}
		for _, is := range issues {
			if is.Severity != c.want {
				t.Errorf("%q: expected severity %s, got %s", c.text, c.want, is.Severity)
			}
		}
	}
}

func TestIssuesSubstringMatch(t *testing.T) {
	issues := Issues("the list was flagged twice", 1)
	if len(issues) != 1 || issues[0].Category != "Performance" {
		t.Errorf("expected substring 'lag' to match Performance, got %+v", issues)
	}
}

func TestCategoryLabel(t *testing.T) {
	cases := map[Category]string{
		Performance: "Performance",
		UIUX:        "Ui/Ux",
		Payment:     "Payment",
		Features:    "Features",
	}
	for c, want := range cases {
		if got := c.Label(); got != want {
			t.Errorf("%s: expected %q, got %q", c, want, got)
		}
	}
	if got := len(Categories()); got != 4 {
		t.Errorf("expected 4 categories, got %d", got)
	}
}
