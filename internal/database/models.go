package database

// CountRow is one row of a grouped count query.
type CountRow struct {
	Key   string
	Count int
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalFeedback   int
	Analyzed        int
	Skipped         int
	Pending         int
	Issues          int
	FeatureRequests int
}

// Table is a generic result set used for exports.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}
