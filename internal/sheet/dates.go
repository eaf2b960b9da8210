package sheet

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	dateTimeLayout = "2006-01-02 15:04:05"
	timeLayout     = "15:04:05"
)

// dateRenderer rewrites date-formatted serial numbers in raw rows as text.
type dateRenderer struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	isDate   map[int]bool // by style index
}

func newDateRenderer(f *excelize.File, sheetName string) *dateRenderer {
	r := &dateRenderer{f: f, sheet: sheetName, isDate: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}
	return r
}

func (r *dateRenderer) render(lines [][]string) error {
	for i, line := range lines {
		for j, v := range line {
			serial, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			date, err := r.dateStyled(cell)
			if err != nil {
				return err
			}
			if !date {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, r.date1904)
			if err != nil {
				continue // out of range for a date, keep the number
			}
			t = t.Round(time.Second)
			if serial < 1 {
				line[j] = t.Format(timeLayout)
			} else {
				line[j] = t.Format(dateTimeLayout)
			}
		}
	}
	return nil
}

func (r *dateRenderer) dateStyled(cell string) (bool, error) {
	idx, err := r.f.GetCellStyle(r.sheet, cell)
	if err != nil {
		return false, err
	}
	if date, ok := r.isDate[idx]; ok {
		return date, nil
	}
	style, err := r.f.GetStyle(idx)
	if err != nil {
		return false, err
	}
	date := isDateFormat(style)
	r.isDate[idx] = date
	return date, nil
}

// isDateFormat reports whether style displays numbers as a date or time.
func isDateFormat(style *excelize.Style) bool {
	if style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	n := style.NumFmt
	return (n >= 14 && n <= 22) || (n >= 27 && n <= 36) || (n >= 45 && n <= 47) || (n >= 50 && n <= 58)
}

// isDateFormatCode looks for date or time tokens outside quoted literals,
// escapes and bracketed sections such as currency or colour codes.
// Elapsed-time brackets like [h] count as time.
func isDateFormatCode(code string) bool {
	var (
		inQuote   bool
		inBracket bool
		bracket   strings.Builder
	)
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case inQuote:
			inQuote = c != '"'
		case inBracket:
			if c == ']' {
				inBracket = false
				switch strings.ToLower(bracket.String()) {
				case "h", "hh", "m", "mm", "s", "ss":
					return true
				}
				bracket.Reset()
			} else {
				bracket.WriteByte(c)
			}
		case c == '"':
			inQuote = true
		case c == '[':
			inBracket = true
		case c == '\\' || c == '_' || c == '*':
			i++ // next character is a literal or padding
		default:
			switch c {
			case 'y', 'Y', 'm', 'M', 'd', 'D', 'h', 'H', 's', 'S':
				return true
			}
		}
	}
	return false
}
