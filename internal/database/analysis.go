package database

import (
	"database/sql"
	"fmt"

	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
)

// SaveSentimentResults inserts all results in a single transaction.
func (db *DB) SaveSentimentResults(results []feedback.SentimentResult) error {
	if len(results) == 0 {
		return nil
	}
	return db.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO sentiment_analysis
			(feedback_id, sentiment, confidence_score, sentiment_score)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing sentiment insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range results {
			if _, err := stmt.Exec(r.FeedbackID, string(r.Sentiment), r.Confidence, r.Score); err != nil {
				return fmt.Errorf("inserting sentiment for feedback %d: %w", r.FeedbackID, err)
			}
		}
		return nil
	})
}

// SaveIssues inserts all issues in a single transaction. An issue already
// recorded for the same feedback item and category is left untouched.
func (db *DB) SaveIssues(issues []feedback.Issue) error {
	if len(issues) == 0 {
		return nil
	}
	return db.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO issues_detected
			(feedback_id, issue_category, issue_description, severity)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing issue insert: %w", err)
		}
		defer stmt.Close()
		for _, is := range issues {
			if _, err := stmt.Exec(is.FeedbackID, is.Category, is.Description, string(is.Severity)); err != nil {
				return fmt.Errorf("inserting issue for feedback %d: %w", is.FeedbackID, err)
			}
		}
		return nil
	})
}

// SaveFeatureRequests inserts all feature requests in a single transaction.
// A feedback item keeps its first recorded request.
func (db *DB) SaveFeatureRequests(requests []feedback.FeatureRequest) error {
	if len(requests) == 0 {
		return nil
	}
	return db.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO feature_requests
			(feedback_id, feature_name, priority, category)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing feature request insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range requests {
			if _, err := stmt.Exec(r.FeedbackID, r.FeatureName, string(r.Priority), r.Category); err != nil {
				return fmt.Errorf("inserting feature request for feedback %d: %w", r.FeedbackID, err)
			}
		}
		return nil
	})
}

// MarkSkipped records feedback items that were processed without producing
// any signal so they are not selected again.
func (db *DB) MarkSkipped(ids []int64, reason string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO skipped_feedback (feedback_id, reason) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing skip marker insert: %w", err)
		}
		defer stmt.Close()
		for _, id := range ids {
			if _, err := stmt.Exec(id, reason); err != nil {
				return fmt.Errorf("marking feedback %d skipped: %w", id, err)
			}
		}
		return nil
	})
}

// GetSentimentResult returns the sentiment for a feedback item, or nil.
func (db *DB) GetSentimentResult(feedbackID int64) (*feedback.SentimentResult, error) {
	row := db.conn.QueryRow(
		`SELECT feedback_id, sentiment, confidence_score, sentiment_score
		FROM sentiment_analysis WHERE feedback_id = ?`, feedbackID,
	)
	var r feedback.SentimentResult
	var label string
	if err := row.Scan(&r.FeedbackID, &label, &r.Confidence, &r.Score); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	r.Sentiment = feedback.Sentiment(label)
	return &r, nil
}

// GetIssues returns the issues detected for a feedback item.
func (db *DB) GetIssues(feedbackID int64) ([]feedback.Issue, error) {
	rows, err := db.conn.Query(
		`SELECT feedback_id, issue_category, issue_description, severity
		FROM issues_detected WHERE feedback_id = ? ORDER BY issue_id`, feedbackID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []feedback.Issue
	for rows.Next() {
		var is feedback.Issue
		var severity string
		if err := rows.Scan(&is.FeedbackID, &is.Category, &is.Description, &severity); err != nil {
			return nil, err
		}
		is.Severity = feedback.Level(severity)
		issues = append(issues, is)
	}
	return issues, rows.Err()
}

// GetFeatureRequests returns the feature requests for a feedback item.
func (db *DB) GetFeatureRequests(feedbackID int64) ([]feedback.FeatureRequest, error) {
	rows, err := db.conn.Query(
		`SELECT feedback_id, feature_name, priority, category
		FROM feature_requests WHERE feedback_id = ? ORDER BY request_id`, feedbackID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []feedback.FeatureRequest
	for rows.Next() {
		var r feedback.FeatureRequest
		var priority string
		if err := rows.Scan(&r.FeedbackID, &r.FeatureName, &priority, &r.Category); err != nil {
			return nil, err
		}
		r.Priority = feedback.Level(priority)
		requests = append(requests, r)
	}
	return requests, rows.Err()
}
