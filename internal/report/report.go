// Package report builds the summary of stored analysis results.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/FeedbackLens/internal/database"
	"github.com/TobiSchelling/FeedbackLens/internal/logger"
)

// TopN is how many issue categories and feature requests the rendered
// formats show. JSON output carries the full lists.
const TopN = 5

// Output formats accepted by Summary.Write.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatJSON     = "json"
)

// Formats lists the supported output formats.
var Formats = []string{FormatText, FormatMarkdown, FormatHTML, FormatJSON}

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Source supplies the aggregate counts a report is built from.
type Source interface {
	SentimentDistribution() ([]database.CountRow, error)
	IssueCategoryCounts() ([]database.CountRow, error)
	FeatureRequestCounts() ([]database.CountRow, error)
}

// Count is one labelled count in a Summary.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary is a point-in-time report of stored results.
type Summary struct {
	GeneratedAt     time.Time `json:"generated_at"`
	Sentiment       []Count   `json:"sentiment_distribution"`
	Issues          []Count   `json:"issue_categories"`
	FeatureRequests []Count   `json:"feature_requests"`
}

// Generator builds summaries from a Source.
type Generator struct {
	src Source
	log logger.Logger
	now func() time.Time
}

// NewGenerator creates a report generator.
func NewGenerator(src Source, log logger.Logger) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Generator{src: src, log: log, now: time.Now}
}

// Generate runs the three aggregate queries. If any of them fails no
// summary is returned.
func (g *Generator) Generate() (*Summary, error) {
	sentiment, err := g.src.SentimentDistribution()
	if err != nil {
		g.log.Error("Error generating report", logger.String("section", "sentiment"), logger.Error(err))
		return nil, fmt.Errorf("sentiment distribution: %w", err)
	}
	issues, err := g.src.IssueCategoryCounts()
	if err != nil {
		g.log.Error("Error generating report", logger.String("section", "issues"), logger.Error(err))
		return nil, fmt.Errorf("issue categories: %w", err)
	}
	requests, err := g.src.FeatureRequestCounts()
	if err != nil {
		g.log.Error("Error generating report", logger.String("section", "feature_requests"), logger.Error(err))
		return nil, fmt.Errorf("feature requests: %w", err)
	}

	return &Summary{
		GeneratedAt:     g.now().UTC(),
		Sentiment:       toCounts(sentiment),
		Issues:          toCounts(issues),
		FeatureRequests: toCounts(requests),
	}, nil
}

func toCounts(rows []database.CountRow) []Count {
	out := make([]Count, 0, len(rows))
	for _, r := range rows {
		out = append(out, Count{Name: r.Key, Count: r.Count})
	}
	return out
}

func top(c []Count) []Count {
	if len(c) > TopN {
		return c[:TopN]
	}
	return c
}

// Write renders the summary in the given format.
func (s *Summary) Write(w io.Writer, format string) error {
	switch format {
	case FormatText, "":
		return s.writeText(w)
	case FormatMarkdown:
		_, err := io.WriteString(w, s.Markdown())
		return err
	case FormatHTML:
		var buf bytes.Buffer
		if err := md.Convert([]byte(s.Markdown()), &buf); err != nil {
			return fmt.Errorf("rendering html: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	default:
		return fmt.Errorf("unknown report format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

func (s *Summary) writeText(w io.Writer) error {
	sections := []struct {
		title  string
		header string
		rows   []Count
	}{
		{"Sentiment Distribution", "Sentiment", s.Sentiment},
		{"Top Issues", "Category", top(s.Issues)},
		{"Top Feature Requests", "Feature", top(s.FeatureRequests)},
	}
	for i, sec := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.SetTitle(sec.title)
		t.AppendHeader(table.Row{sec.header, "Count"})
		for _, c := range sec.rows {
			t.AppendRow(table.Row{c.Name, c.Count})
		}
		if len(sec.rows) == 0 {
			t.AppendRow(table.Row{"(none)", 0})
		}
		t.Render()
	}
	return nil
}

// Markdown renders the summary as a markdown document.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("# Feedback Analysis Report\n\n")
	fmt.Fprintf(&b, "_Generated %s_\n", s.GeneratedAt.Format(time.RFC3339))
	writeMarkdownTable(&b, "Sentiment Distribution", "Sentiment", s.Sentiment)
	writeMarkdownTable(&b, "Top Issues", "Category", top(s.Issues))
	writeMarkdownTable(&b, "Top Feature Requests", "Feature", top(s.FeatureRequests))
	return b.String()
}

func writeMarkdownTable(b *strings.Builder, title, header string, rows []Count) {
	fmt.Fprintf(b, "\n## %s\n\n", title)
	if len(rows) == 0 {
		b.WriteString("No data.\n")
		return
	}
	fmt.Fprintf(b, "| %s | Count |\n|---|---:|\n", header)
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %d |\n", strings.ReplaceAll(r.Name, "|", `\|`), r.Count)
	}
}
