// Package ingest loads customer feedback into the database from
// spreadsheets and review feeds.
package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
)

// Column names recognised in CSV and XLSX headers.
const (
	ColFeedbackID   = "feedback_id"
	ColCustomerID   = "customer_id"
	ColProductID    = "product_id"
	ColFeedbackText = "feedback_text"
	ColRating       = "rating"
	ColFeedbackDate = "feedback_date"
	ColChannel      = "channel"
)

// Store receives imported feedback.
type Store interface {
	InsertFeedbackBatch(items []feedback.Item) (inserted, duplicates int, err error)
}

// RowError describes a row that could not be imported.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// Result holds the results of an import.
type Result struct {
	Read       int
	Inserted   int
	Duplicates int
	Invalid    []RowError
}

// Save writes the parsed items and fills in the insert counters.
func (r *Result) Save(store Store, items []feedback.Item) error {
	inserted, dups, err := store.InsertFeedbackBatch(items)
	if err != nil {
		return err
	}
	r.Inserted += inserted
	r.Duplicates += dups
	return nil
}

// header maps column names to their index.
type header map[string]int

func parseHeader(cells []string) (header, error) {
	h := make(header, len(cells))
	for i, c := range cells {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(c, "\ufeff")))
		if name != "" {
			h[name] = i
		}
	}
	if _, ok := h[ColFeedbackText]; !ok {
		return nil, fmt.Errorf("missing required column %q", ColFeedbackText)
	}
	return h, nil
}

func (h header) get(cells []string, col string) *string {
	i, ok := h[col]
	if !ok || i >= len(cells) {
		return nil
	}
	v := strings.TrimSpace(cells[i])
	if v == "" {
		return nil
	}
	return &v
}

// parseRow turns one data row into a feedback item. An empty row yields
// (nil, nil).
func (h header) parseRow(cells []string, defaultChannel string) (*feedback.Item, error) {
	empty := true
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			empty = false
			break
		}
	}
	if empty {
		return nil, nil
	}

	item := &feedback.Item{
		Text:         h.get(cells, ColFeedbackText),
		CustomerID:   h.get(cells, ColCustomerID),
		ProductID:    h.get(cells, ColProductID),
		FeedbackDate: h.get(cells, ColFeedbackDate),
		Channel:      h.get(cells, ColChannel),
	}
	if item.Channel == nil && defaultChannel != "" {
		ch := defaultChannel
		item.Channel = &ch
	}

	if v := h.get(cells, ColFeedbackID); v != nil {
		id, err := strconv.ParseInt(*v, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid %s %q", ColFeedbackID, *v)
		}
		item.ID = id
	}
	if v := h.get(cells, ColRating); v != nil {
		rating, err := strconv.ParseFloat(*v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", ColRating, *v)
		}
		item.Rating = &rating
	}
	return item, nil
}

// parseRows converts a header row plus data rows into items. Row numbers in
// errors are 1-based and count the header.
func parseRows(rows [][]string, defaultChannel string) ([]feedback.Item, *Result, error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no header row")
	}
	h, err := parseHeader(rows[0])
	if err != nil {
		return nil, nil, err
	}

	res := &Result{}
	var items []feedback.Item
	for i, cells := range rows[1:] {
		item, err := h.parseRow(cells, defaultChannel)
		if err != nil {
			res.Invalid = append(res.Invalid, RowError{Row: i + 2, Error: err.Error()})
			continue
		}
		if item == nil {
			continue
		}
		res.Read++
		items = append(items, *item)
	}
	return items, res, nil
}
