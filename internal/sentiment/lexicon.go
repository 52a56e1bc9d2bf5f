package sentiment

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"strconv"
	"strings"
)

//go:embed lexicon/*.txt
var lexiconFS embed.FS

// Lexicon maps a lower-case word to its sentiment weight.
type Lexicon map[string]float64

// ParseLexicon reads "word<whitespace>weight" lines. Blank lines and lines
// starting with '#' are ignored.
func ParseLexicon(r io.Reader) (Lexicon, error) {
	lex := make(Lexicon)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected word and weight, got %q", line, text)
		}
		weight, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid weight %q: %w", line, fields[1], err)
		}
		lex[strings.ToLower(fields[0])] = weight
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading lexicon: %w", err)
	}
	return lex, nil
}

// WithFallback returns a copy of lex extended by every word of fallback
// that lex does not already weigh.
func (lex Lexicon) WithFallback(fallback Lexicon) Lexicon {
	out := make(Lexicon, len(lex)+len(fallback))
	for w, v := range fallback {
		out[w] = v
	}
	for w, v := range lex {
		out[w] = v
	}
	return out
}

func loadEmbedded(name string) (Lexicon, error) {
	f, err := lexiconFS.Open("lexicon/" + name)
	if err != nil {
		return nil, fmt.Errorf("opening lexicon %s: %w", name, err)
	}
	defer f.Close()
	lex, err := ParseLexicon(f)
	if err != nil {
		return nil, fmt.Errorf("parsing lexicon %s: %w", name, err)
	}
	return lex, nil
}
