// Package sheet reads worksheets out of xlsx workbooks as header-keyed rows.
package sheet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrFileNotFound is returned when the workbook path does not exist.
	ErrFileNotFound = errors.New("spreadsheet file not found")
	// ErrSheetNotFound is returned when the workbook has no worksheet with the requested name.
	ErrSheetNotFound = errors.New("worksheet not found")
)

// Row is a single data row keyed by header name.
// Every header column is present; cells the file leaves blank hold "".
type Row struct {
	Line  int // 1-based line number in the worksheet
	Cells map[string]string
}

// Get returns the value of column and whether the worksheet has that column.
func (r Row) Get(column string) (string, bool) {
	v, ok := r.Cells[column]
	return v, ok
}

// ReadRows opens the workbook at path and returns the data rows of the named
// worksheet in file order. The first non-empty line is the header.
// Lines with no values at all are skipped.
//
// Cells hold their stored value, not their display text. Numeric cells with a
// date or time format are rendered as "2006-01-02 15:04:05", or "15:04:05"
// when they carry no date part.
func ReadRows(path, sheetName string) ([]Row, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	if !hasSheet(f, sheetName) {
		return nil, fmt.Errorf("%w: %q in %s", ErrSheetNotFound, sheetName, path)
	}

	// Raw values keep the stored precision that a display format would round away.
	lines, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheetName, err)
	}
	if err := newDateRenderer(f, sheetName).render(lines); err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheetName, err)
	}
	return toRows(lines), nil
}

func hasSheet(f *excelize.File, name string) bool {
	for _, s := range f.GetSheetList() {
		if s == name {
			return true
		}
	}
	return false
}

// toRows keys each line by the header. Trailing blank cells are trimmed by
// excelize, so short lines are padded with "".
func toRows(lines [][]string) []Row {
	var header []string
	rows := make([]Row, 0, len(lines))
	for i, line := range lines {
		if isBlank(line) {
			continue
		}
		if header == nil {
			header = make([]string, len(line))
			for j, h := range line {
				header[j] = strings.TrimSpace(h)
			}
			continue
		}

		cells := make(map[string]string, len(header))
		for j, name := range header {
			if name == "" {
				continue
			}
			if _, dup := cells[name]; dup {
				continue
			}
			if j < len(line) {
				cells[name] = line[j]
			} else {
				cells[name] = ""
			}
		}
		rows = append(rows, Row{Line: i + 1, Cells: cells})
	}
	return rows
}

func isBlank(line []string) bool {
	for _, v := range line {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
