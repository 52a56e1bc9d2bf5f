package database

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func insertText(t *testing.T, db *DB, text string) int64 {
	t.Helper()
	id, err := db.InsertFeedback(feedback.Item{Text: ptr(text)})
	if err != nil {
		t.Fatalf("InsertFeedback: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero feedback ID")
	}
	return id
}

func TestInsertFeedback(t *testing.T) {
	db := openTestDB(t)
	rating := 4.0
	id, err := db.InsertFeedback(feedback.Item{
		Text:         ptr("Great app"),
		Rating:       &rating,
		CustomerID:   ptr("C1"),
		Channel:      ptr("email"),
		FeedbackDate: ptr("2026-02-06"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := db.GetFeedback(id)
	if err != nil {
		t.Fatalf("GetFeedback: %v", err)
	}
	if got == nil {
		t.Fatal("expected feedback item, got nil")
	}
	if *got.Text != "Great app" {
		t.Errorf("expected text %q, got %q", "Great app", *got.Text)
	}
	if got.Rating == nil || *got.Rating != 4.0 {
		t.Errorf("expected rating 4, got %v", got.Rating)
	}
	if got.ProductID != nil {
		t.Errorf("expected nil product ID, got %q", *got.ProductID)
	}
}

func TestInsertDuplicateExternalRef(t *testing.T) {
	db := openTestDB(t)
	item := feedback.Item{Text: ptr("first"), ExternalRef: ptr("feed:abc")}
	if _, err := db.InsertFeedback(item); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	item.Text = ptr("second")
	id, err := db.InsertFeedback(item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 0 {
		t.Errorf("expected 0 for duplicate feedback, got %d", id)
	}
}

func TestInsertFeedbackBatch(t *testing.T) {
	db := openTestDB(t)
	items := []feedback.Item{
		{Text: ptr("a"), ExternalRef: ptr("r1")},
		{Text: ptr("b"), ExternalRef: ptr("r2")},
		{Text: ptr("c"), ExternalRef: ptr("r1")},
	}
	inserted, dups, err := db.InsertFeedbackBatch(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 2 || dups != 1 {
		t.Errorf("expected 2 inserted and 1 duplicate, got %d and %d", inserted, dups)
	}
}

func TestGetUnprocessedFeedback(t *testing.T) {
	db := openTestDB(t)
	a := insertText(t, db, "one")
	b := insertText(t, db, "two")
	c := insertText(t, db, "three")

	err := db.SaveSentimentResults([]feedback.SentimentResult{
		{FeedbackID: b, Sentiment: feedback.Positive, Confidence: 0.5, Score: 0.5},
	})
	if err != nil {
		t.Fatalf("SaveSentimentResults: %v", err)
	}

	items, err := db.GetUnprocessedFeedback(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 unprocessed items, got %d", len(items))
	}
	if items[0].ID != a || items[1].ID != c {
		t.Errorf("expected IDs %d and %d in order, got %d and %d", a, c, items[0].ID, items[1].ID)
	}
}

func TestSkippedFeedbackExcluded(t *testing.T) {
	db := openTestDB(t)
	id := insertText(t, db, "!!!")
	if err := db.MarkSkipped([]int64{id}, "empty"); err != nil {
		t.Fatalf("MarkSkipped: %v", err)
	}
	// Marking twice is harmless.
	if err := db.MarkSkipped([]int64{id}, "empty"); err != nil {
		t.Fatalf("second MarkSkipped: %v", err)
	}

	items, err := db.GetUnprocessedFeedback(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected skipped item to be excluded, got %d items", len(items))
	}

	items, err = db.GetUnprocessedFeedback(false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected skipped item when markers are ignored, got %d items", len(items))
	}
}

func TestSaveAndReadAnalysis(t *testing.T) {
	db := openTestDB(t)
	id := insertText(t, db, "slow app, please add dark mode")

	if err := db.SaveSentimentResults([]feedback.SentimentResult{
		{FeedbackID: id, Sentiment: feedback.Negative, Confidence: 0.3, Score: -0.3},
	}); err != nil {
		t.Fatalf("SaveSentimentResults: %v", err)
	}
	issues := []feedback.Issue{
		{FeedbackID: id, Category: "Performance", Description: "Slow related issue", Severity: feedback.Medium},
	}
	if err := db.SaveIssues(issues); err != nil {
		t.Fatalf("SaveIssues: %v", err)
	}
	// A repeated issue for the same category is ignored.
	if err := db.SaveIssues(issues); err != nil {
		t.Fatalf("second SaveIssues: %v", err)
	}
	requests := []feedback.FeatureRequest{
		{FeedbackID: id, FeatureName: "Requested feature from feedback 1", Priority: feedback.Low, Category: "General"},
	}
	if err := db.SaveFeatureRequests(requests); err != nil {
		t.Fatalf("SaveFeatureRequests: %v", err)
	}
	if err := db.SaveFeatureRequests(requests); err != nil {
		t.Fatalf("second SaveFeatureRequests: %v", err)
	}

	sr, err := db.GetSentimentResult(id)
	if err != nil || sr == nil {
		t.Fatalf("GetSentimentResult: %v, %v", sr, err)
	}
	if sr.Sentiment != feedback.Negative {
		t.Errorf("expected negative, got %s", sr.Sentiment)
	}

	gotIssues, err := db.GetIssues(id)
	if err != nil {
		t.Fatalf("GetIssues: %v", err)
	}
	if len(gotIssues) != 1 || gotIssues[0].Severity != feedback.Medium {
		t.Errorf("expected one medium issue, got %+v", gotIssues)
	}

	gotReqs, err := db.GetFeatureRequests(id)
	if err != nil {
		t.Fatalf("GetFeatureRequests: %v", err)
	}
	if len(gotReqs) != 1 || gotReqs[0].Category != "General" {
		t.Errorf("expected one General request, got %+v", gotReqs)
	}
}

func TestGetSentimentResultMissing(t *testing.T) {
	db := openTestDB(t)
	sr, err := db.GetSentimentResult(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sr != nil {
		t.Errorf("expected nil result, got %+v", sr)
	}
}

func TestSaveSentimentRejectsBadLabel(t *testing.T) {
	db := openTestDB(t)
	id := insertText(t, db, "x")
	err := db.SaveSentimentResults([]feedback.SentimentResult{
		{FeedbackID: id, Sentiment: "mixed"},
	})
	if err == nil {
		t.Error("expected CHECK constraint error for unknown label")
	}
}

func TestReportCounts(t *testing.T) {
	db := openTestDB(t)
	var ids []int64
	for _, text := range []string{"a", "b", "c"} {
		ids = append(ids, insertText(t, db, text))
	}
	db.SaveSentimentResults([]feedback.SentimentResult{
		{FeedbackID: ids[0], Sentiment: feedback.Positive},
		{FeedbackID: ids[1], Sentiment: feedback.Positive},
		{FeedbackID: ids[2], Sentiment: feedback.Negative},
	})
	db.SaveIssues([]feedback.Issue{
		{FeedbackID: ids[0], Category: "Payment", Description: "d", Severity: feedback.Low},
		{FeedbackID: ids[1], Category: "Payment", Description: "d", Severity: feedback.Low},
		{FeedbackID: ids[1], Category: "Performance", Description: "d", Severity: feedback.High},
	})

	dist, err := db.SentimentDistribution()
	if err != nil {
		t.Fatalf("SentimentDistribution: %v", err)
	}
	counts := map[string]int{}
	for _, r := range dist {
		counts[r.Key] = r.Count
	}
	if counts["positive"] != 2 || counts["negative"] != 1 {
		t.Errorf("unexpected distribution: %v", counts)
	}

	cats, err := db.IssueCategoryCounts()
	if err != nil {
		t.Fatalf("IssueCategoryCounts: %v", err)
	}
	if len(cats) != 2 || cats[0].Key != "Payment" || cats[0].Count != 2 {
		t.Errorf("expected Payment first with 2, got %+v", cats)
	}

	reqs, err := db.FeatureRequestCounts()
	if err != nil {
		t.Fatalf("FeatureRequestCounts: %v", err)
	}
	if len(reqs) != 0 {
		t.Errorf("expected no feature request rows, got %d", len(reqs))
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	a := insertText(t, db, "a")
	b := insertText(t, db, "b")
	insertText(t, db, "c")
	db.SaveSentimentResults([]feedback.SentimentResult{{FeedbackID: a, Sentiment: feedback.Neutral}})
	db.MarkSkipped([]int64{b}, "empty")

	s, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TotalFeedback != 3 {
		t.Errorf("expected 3 total, got %d", s.TotalFeedback)
	}
	if s.Analyzed != 1 || s.Skipped != 1 || s.Pending != 1 {
		t.Errorf("expected 1 analyzed, 1 skipped, 1 pending, got %+v", s)
	}
}

func TestExportView(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertFeedback(feedback.Item{Text: ptr("nice"), FeedbackDate: ptr("2026-02-06")})
	db.SaveSentimentResults([]feedback.SentimentResult{{FeedbackID: id, Sentiment: feedback.Positive, Score: 0.6}})

	for _, name := range ExportViews {
		table, err := db.ExportView(name)
		if err != nil {
			t.Fatalf("ExportView(%s): %v", name, err)
		}
		if len(table.Columns) == 0 {
			t.Errorf("%s: expected columns", name)
		}
	}

	trends, _ := db.ExportView("vw_sentiment_trends")
	if len(trends.Rows) != 1 {
		t.Fatalf("expected 1 trend row, got %d", len(trends.Rows))
	}

	if _, err := db.ExportView("customer_feedback; DROP TABLE x"); err == nil {
		t.Error("expected error for unknown view")
	}
}

func TestSaveIssuesRollsBackOnError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer conn.Close()
	db := &DB{conn: conn}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT OR IGNORE INTO issues_detected")
	prep.ExpectExec().WithArgs(int64(1), "Payment", "Pay related issue", "low").
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs(int64(2), "Payment", "Pay related issue", "low").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = db.SaveIssues([]feedback.Issue{
		{FeedbackID: 1, Category: "Payment", Description: "Pay related issue", Severity: feedback.Low},
		{FeedbackID: 2, Category: "Payment", Description: "Pay related issue", Severity: feedback.Low},
	})
	if err == nil {
		t.Fatal("expected error from failing insert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestInsertBatchRollsBackOnError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer conn.Close()
	db := &DB{conn: conn}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT OR IGNORE INTO customer_feedback").WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	_, _, err = db.InsertFeedbackBatch([]feedback.Item{{Text: ptr("x")}})
	if err == nil {
		t.Fatal("expected error from failing batch")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
