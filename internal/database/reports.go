package database

import (
	"database/sql"
	"fmt"
)

// SentimentDistribution counts sentiment results per label.
func (db *DB) SentimentDistribution() ([]CountRow, error) {
	return db.countRows(`SELECT sentiment, COUNT(*) AS count
		FROM sentiment_analysis
		GROUP BY sentiment
		ORDER BY sentiment`)
}

// IssueCategoryCounts counts issues per category, most frequent first.
func (db *DB) IssueCategoryCounts() ([]CountRow, error) {
	return db.countRows(`SELECT issue_category, COUNT(*) AS count
		FROM issues_detected
		GROUP BY issue_category
		ORDER BY count DESC, issue_category`)
}

// FeatureRequestCounts counts feature requests per feature name, most
// frequent first.
func (db *DB) FeatureRequestCounts() ([]CountRow, error) {
	return db.countRows(`SELECT feature_name, COUNT(*) AS count
		FROM feature_requests
		GROUP BY feature_name
		ORDER BY count DESC, feature_name`)
}

func (db *DB) countRows(query string) ([]CountRow, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CountRow
	for rows.Next() {
		var r CountRow
		if err := rows.Scan(&r.Key, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	var s Stats
	queries := []struct {
		dest  *int
		query string
	}{
		{&s.TotalFeedback, "SELECT COUNT(*) FROM customer_feedback"},
		{&s.Analyzed, "SELECT COUNT(*) FROM sentiment_analysis"},
		{&s.Skipped, "SELECT COUNT(*) FROM skipped_feedback"},
		{&s.Issues, "SELECT COUNT(*) FROM issues_detected"},
		{&s.FeatureRequests, "SELECT COUNT(*) FROM feature_requests"},
		{&s.Pending, `SELECT COUNT(*) FROM customer_feedback cf
			LEFT JOIN sentiment_analysis sa ON cf.feedback_id = sa.feedback_id
			LEFT JOIN skipped_feedback sk ON cf.feedback_id = sk.feedback_id
			WHERE sa.feedback_id IS NULL AND sk.feedback_id IS NULL`},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("reading stats: %w", err)
		}
	}
	return &s, nil
}

// ExportViews lists the dashboard views available to ExportView.
var ExportViews = []string{"vw_dashboard_summary", "vw_sentiment_trends", "vw_issues_requests"}

var exportOrder = map[string]string{
	"vw_dashboard_summary": "feedback_date DESC, feedback_id DESC",
	"vw_sentiment_trends":  "date DESC",
	"vw_issues_requests":   "count DESC, kind, name",
}

// ExportView reads a whole dashboard view into memory.
func (db *DB) ExportView(name string) (*Table, error) {
	order, ok := exportOrder[name]
	if !ok {
		return nil, fmt.Errorf("unknown export view %q", name)
	}
	rows, err := db.conn.Query(fmt.Sprintf("SELECT * FROM %s ORDER BY %s", name, order))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", name, err)
	}
	defer rows.Close()
	return scanTable(name, rows)
}

func scanTable(name string, rows *sql.Rows) (*Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	t := &Table{Name: name, Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, values)
	}
	return t, rows.Err()
}
