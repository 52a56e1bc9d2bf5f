package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
)

// ReadCSV parses feedback rows from CSV with a header line.
func ReadCSV(r io.Reader) ([]feedback.Item, *Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading csv: %w", err)
	}
	return parseRows(rows, "csv")
}

// ImportCSV reads a CSV file and stores its rows.
func ImportCSV(store Store, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	items, res, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := res.Save(store, items); err != nil {
		return nil, err
	}
	return res, nil
}
