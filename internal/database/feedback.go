package database

import (
	"database/sql"
	"fmt"

	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
)

const feedbackColumns = `cf.feedback_id, cf.feedback_text, cf.rating, cf.customer_id,
	cf.product_id, cf.channel, cf.feedback_date, cf.external_ref`

// InsertFeedback inserts a feedback item. Returns the ID on success, 0 if an
// item with the same external reference or ID already exists.
func (db *DB) InsertFeedback(item feedback.Item) (int64, error) {
	return insertFeedback(db.conn, item)
}

// InsertFeedbackBatch inserts items in one transaction and reports how many
// were new and how many were duplicates.
func (db *DB) InsertFeedbackBatch(items []feedback.Item) (inserted, duplicates int, err error) {
	if len(items) == 0 {
		return 0, 0, nil
	}
	err = db.inTx(func(tx *sql.Tx) error {
		for _, item := range items {
			id, err := insertFeedback(tx, item)
			if err != nil {
				return err
			}
			if id == 0 {
				duplicates++
			} else {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return inserted, duplicates, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertFeedback(x execer, item feedback.Item) (int64, error) {
	var id any
	if item.ID > 0 {
		id = item.ID
	}
	result, err := x.Exec(
		`INSERT OR IGNORE INTO customer_feedback
		(feedback_id, feedback_text, rating, customer_id, product_id, channel, feedback_date, external_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, item.Text, item.Rating, item.CustomerID, item.ProductID, item.Channel,
		item.FeedbackDate, item.ExternalRef,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting feedback: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return result.LastInsertId()
}

// GetUnprocessedFeedback returns feedback with no sentiment result. When
// excludeSkipped is true, items marked as skipped are left out as well.
// The whole backlog is returned in one slice.
func (db *DB) GetUnprocessedFeedback(excludeSkipped bool) ([]feedback.Item, error) {
	query := `SELECT ` + feedbackColumns + `
		FROM customer_feedback cf
		LEFT JOIN sentiment_analysis sa ON cf.feedback_id = sa.feedback_id`
	if excludeSkipped {
		query += `
		LEFT JOIN skipped_feedback sk ON cf.feedback_id = sk.feedback_id
		WHERE sa.feedback_id IS NULL AND sk.feedback_id IS NULL`
	} else {
		query += `
		WHERE sa.feedback_id IS NULL`
	}
	query += " ORDER BY cf.feedback_id"

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying unprocessed feedback: %w", err)
	}
	defer rows.Close()
	return scanFeedback(rows)
}

// GetFeedback returns a single feedback item by ID, or nil if missing.
func (db *DB) GetFeedback(id int64) (*feedback.Item, error) {
	rows, err := db.conn.Query(`SELECT `+feedbackColumns+`
		FROM customer_feedback cf WHERE cf.feedback_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, err := scanFeedback(rows)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

func scanFeedback(rows *sql.Rows) ([]feedback.Item, error) {
	var items []feedback.Item
	for rows.Next() {
		var it feedback.Item
		if err := rows.Scan(&it.ID, &it.Text, &it.Rating, &it.CustomerID, &it.ProductID,
			&it.Channel, &it.FeedbackDate, &it.ExternalRef); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
