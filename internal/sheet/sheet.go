package sheet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const DefaultSheet = "Sheet1"

var (
	ErrNoTables      = errors.New("no tables to write")
	ErrMissingColumn = errors.New("missing required column")
	ErrSheetNotFound = errors.New("sheet not found")
)

// Table is one sheet worth of rows sharing a header. Cells are written as-is, so numbers stay
// numeric in the workbook.
type Table struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

// Write saves a single table as a one-sheet workbook, replacing path if it exists.
func Write(path string, t Table) error {
	if t.Name == "" {
		t.Name = DefaultSheet
	}
	return WriteWorkbook(path, t)
}

// WriteWorkbook saves every table into its own named sheet of one workbook.
func WriteWorkbook(path string, tables ...Table) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := build(tables)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// WriteTo streams the workbook instead of saving it to disk.
func WriteTo(w io.Writer, tables ...Table) error {
	f, err := build(tables)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func build(tables []Table) (*excelize.File, error) {
	if len(tables) == 0 {
		return nil, ErrNoTables
	}

	f := excelize.NewFile()
	for i, t := range tables {
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}

		if i == 0 {
			if name != DefaultSheet {
				if err := f.SetSheetName(DefaultSheet, name); err != nil {
					f.Close()
					return nil, fmt.Errorf("failed to rename sheet: %w", err)
				}
			}
		} else if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}

		if err := writeRows(f, name, t); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	return f, nil
}

func writeRows(f *excelize.File, sheet string, t Table) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer for %s: %w", sheet, err)
	}

	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet %s: %w", sheet, err)
	}
	return nil
}

// ReadTable reads the named sheet, or the first sheet when name is empty. The first row is the
// header; short rows are padded to the header width.
func ReadTable(path, name string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrSheetNotFound
		}
		name = sheets[0]
	} else if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}

	t := &Table{Name: name, Rows: make([][]interface{}, 0)}
	if len(rows) == 0 {
		return t, nil
	}

	t.Header = rows[0]
	for _, row := range rows[1:] {
		cells := make([]interface{}, len(t.Header))
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

// columnIndex maps lower-cased header names to their position.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return idx
}

func cellString(row []interface{}, idx map[string]int, column string) string {
	i, ok := idx[column]
	if !ok || i >= len(row) {
		return ""
	}
	s, _ := row[i].(string)
	return s
}
