package textnorm

import "testing"

func TestClean(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"Hello, World!", "hello world"},
		{"  The app   CRASHED  3 times!!  ", "the app crashed times"},
		{"tabs\tand\nnewlines\r\n", "tabs and newlines"},
		{"don't stop", "dont stop"},
		{"café au lait", "caf au lait"},
		{"12345 !@#$", ""},
		{"non breaking", "non breaking"},
	}
	for _, c := range cases {
		if got := Clean(c.in); got != c.want {
			t.Errorf("Clean(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"This app is so slow and keeps crashing, urgent fix needed",
		"  MIXED case\twith 42 digits & symbols ",
		"ÀÉÎ unicode ß text",
		"",
		"already clean text",
	}
	for _, in := range inputs {
		once := Clean(in)
		if twice := Clean(once); twice != once {
			t.Errorf("Clean not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestCleanNullable(t *testing.T) {
	if got := CleanNullable(nil); got != "" {
		t.Errorf("expected empty string for nil, got %q", got)
	}
	s := "Great Service!"
	if got := CleanNullable(&s); got != "great service" {
		t.Errorf("expected 'great service', got %q", got)
	}
}
