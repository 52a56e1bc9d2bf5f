package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/TobiSchelling/FeedbackLens/internal/feedback"
)

// ReadXLSX parses feedback rows from a workbook. An empty sheet name selects
// the first sheet.
func ReadXLSX(r io.Reader, sheet string) ([]feedback.Item, *Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()
	return readWorkbook(f, sheet)
}

// ImportXLSX reads a workbook file and stores its rows.
func ImportXLSX(store Store, path, sheet string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	items, res, err := readWorkbook(f, sheet)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := res.Save(store, items); err != nil {
		return nil, err
	}
	return res, nil
}

func readWorkbook(f *excelize.File, sheet string) ([]feedback.Item, *Result, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return parseRows(rows, "xlsx")
}
