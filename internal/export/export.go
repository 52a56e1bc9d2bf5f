// Package export writes the dashboard views to files a BI tool can load.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/TobiSchelling/FeedbackLens/internal/database"
)

// Source reads a named dashboard view.
type Source interface {
	ExportView(name string) (*database.Table, error)
}

// Result lists the files written by an export.
type Result struct {
	Files []string
	Rows  map[string]int
}

// Exporter writes the dashboard views.
type Exporter struct {
	src   Source
	views []string
}

// New creates an exporter for the given views. With no views it exports
// every dashboard view.
func New(src Source, views ...string) *Exporter {
	if len(views) == 0 {
		views = database.ExportViews
	}
	return &Exporter{src: src, views: views}
}

func (e *Exporter) load() ([]*database.Table, error) {
	tables := make([]*database.Table, 0, len(e.views))
	for _, v := range e.views {
		t, err := e.src.ExportView(v)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// CSV writes one <view>.csv file per view into dir.
func (e *Exporter) CSV(dir string) (*Result, error) {
	tables, err := e.load()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	res := &Result{Rows: make(map[string]int, len(tables))}
	for _, t := range tables {
		path := filepath.Join(dir, t.Name+".csv")
		if err := writeCSV(path, t); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, path)
		res.Rows[t.Name] = len(t.Rows)
	}
	return res, nil
}

func writeCSV(path string, t *database.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = formatValue(v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// XLSX writes a single workbook with one sheet per view.
func (e *Exporter) XLSX(path string) (*Result, error) {
	tables, err := e.load()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	res := &Result{Rows: make(map[string]int, len(tables))}
	for i, t := range tables {
		sheet := sheetName(t.Name)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := writeSheet(f, sheet, t); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		res.Rows[t.Name] = len(t.Rows)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("saving workbook: %w", err)
	}
	res.Files = []string{path}
	return res, nil
}

func writeSheet(f *excelize.File, sheet string, t *database.Table) error {
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for r, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for i, v := range row {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			values[i] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// sheetName drops the view prefix; Excel limits names to 31 characters.
func sheetName(view string) string {
	name := view
	if len(name) > 3 && name[:3] == "vw_" {
		name = name[3:]
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
