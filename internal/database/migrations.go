package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS customer_feedback (
    feedback_id INTEGER PRIMARY KEY AUTOINCREMENT,
    customer_id TEXT,
    product_id TEXT,
    feedback_text TEXT,
    rating REAL,
    feedback_date TEXT,
    channel TEXT,
    external_ref TEXT UNIQUE,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sentiment_analysis (
    analysis_id INTEGER PRIMARY KEY AUTOINCREMENT,
    feedback_id INTEGER NOT NULL UNIQUE REFERENCES customer_feedback(feedback_id),
    sentiment TEXT NOT NULL CHECK(sentiment IN ('positive', 'negative', 'neutral')),
    confidence_score REAL NOT NULL,
    sentiment_score REAL NOT NULL,
    analysis_date TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS issues_detected (
    issue_id INTEGER PRIMARY KEY AUTOINCREMENT,
    feedback_id INTEGER NOT NULL REFERENCES customer_feedback(feedback_id),
    issue_category TEXT NOT NULL,
    issue_description TEXT NOT NULL,
    severity TEXT NOT NULL CHECK(severity IN ('low', 'medium', 'high')),
    detected_at TEXT DEFAULT (datetime('now')),
    UNIQUE (feedback_id, issue_category)
);

CREATE TABLE IF NOT EXISTS feature_requests (
    request_id INTEGER PRIMARY KEY AUTOINCREMENT,
    feedback_id INTEGER NOT NULL REFERENCES customer_feedback(feedback_id),
    feature_name TEXT NOT NULL,
    priority TEXT NOT NULL CHECK(priority IN ('low', 'medium', 'high')),
    category TEXT NOT NULL,
    detected_at TEXT DEFAULT (datetime('now')),
    UNIQUE (feedback_id)
);

CREATE INDEX IF NOT EXISTS idx_feedback_date ON customer_feedback(feedback_date);
CREATE INDEX IF NOT EXISTS idx_issues_feedback ON issues_detected(feedback_id);
CREATE INDEX IF NOT EXISTS idx_issues_category ON issues_detected(issue_category);
CREATE INDEX IF NOT EXISTS idx_requests_feedback ON feature_requests(feedback_id);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "skipped feedback markers",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS skipped_feedback (
    feedback_id INTEGER PRIMARY KEY REFERENCES customer_feedback(feedback_id),
    reason TEXT NOT NULL,
    skipped_at TEXT DEFAULT (datetime('now'))
);
`)
			return err
		},
	},
	{
		Version:     3,
		Description: "dashboard export views",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE VIEW IF NOT EXISTS vw_dashboard_summary AS
SELECT cf.feedback_id,
       cf.customer_id,
       cf.product_id,
       cf.channel,
       cf.rating,
       COALESCE(cf.feedback_date, date(cf.created_at)) AS feedback_date,
       sa.sentiment,
       sa.confidence_score,
       sa.sentiment_score,
       (SELECT COUNT(*) FROM issues_detected i WHERE i.feedback_id = cf.feedback_id) AS issue_count,
       (SELECT COUNT(*) FROM feature_requests r WHERE r.feedback_id = cf.feedback_id) AS request_count
FROM customer_feedback cf
JOIN sentiment_analysis sa ON sa.feedback_id = cf.feedback_id;

CREATE VIEW IF NOT EXISTS vw_sentiment_trends AS
SELECT COALESCE(cf.feedback_date, date(cf.created_at)) AS date,
       SUM(CASE WHEN sa.sentiment = 'positive' THEN 1 ELSE 0 END) AS positive,
       SUM(CASE WHEN sa.sentiment = 'negative' THEN 1 ELSE 0 END) AS negative,
       SUM(CASE WHEN sa.sentiment = 'neutral' THEN 1 ELSE 0 END) AS neutral,
       ROUND(AVG(sa.sentiment_score), 2) AS avg_score
FROM customer_feedback cf
JOIN sentiment_analysis sa ON sa.feedback_id = cf.feedback_id
GROUP BY COALESCE(cf.feedback_date, date(cf.created_at));

CREATE VIEW IF NOT EXISTS vw_issues_requests AS
SELECT 'issue' AS kind, issue_category AS name, severity AS level, COUNT(*) AS count
FROM issues_detected
GROUP BY issue_category, severity
UNION ALL
SELECT 'feature_request' AS kind, feature_name AS name, priority AS level, COUNT(*) AS count
FROM feature_requests
GROUP BY feature_name, priority;
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
