// Package feedback holds the records produced by the feedback pipeline.
package feedback

// Sentiment is the label assigned to a feedback item.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// Level is the ordinal used for issue severity and feature-request priority.
type Level string

const (
	Low    Level = "low"
	Medium Level = "medium"
	High   Level = "high"
)

// Item is a single piece of customer feedback as stored by the ingestion side.
type Item struct {
	ID           int64
	Text         *string
	Rating       *float64
	CustomerID   *string
	ProductID    *string
	Channel      *string
	FeedbackDate *string
	ExternalRef  *string
}

// SkipEmptyText is the skip reason for feedback whose text is empty after
// cleaning.
const SkipEmptyText = "empty_text"

// SentimentResult is the persisted sentiment for one feedback item.
type SentimentResult struct {
	FeedbackID int64
	Sentiment  Sentiment
	Confidence float64 // [0,1], two decimals
	Score      float64 // [-1,1], two decimals
}

// Issue is a detected problem category for a feedback item.
type Issue struct {
	FeedbackID  int64
	Category    string
	Description string
	Severity    Level
}

// FeatureRequest is a detected feature request for a feedback item.
type FeatureRequest struct {
	FeedbackID  int64
	FeatureName string
	Priority    Level
	Category    string
}
