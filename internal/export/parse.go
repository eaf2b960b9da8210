package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"trades-export-go/internal/sheet"
)

var (
	// ErrColumnMissing is returned when the worksheet lacks an expected column.
	ErrColumnMissing = errors.New("column missing")
	// ErrTypeConversion is returned when a cell cannot be converted to the column's type.
	ErrTypeConversion = errors.New("type conversion failed")
	// ErrUnknownSide is returned in strict mode for a side that is neither UP nor DOWN.
	ErrUnknownSide = errors.New("unrecognized side")
)

// numericNoise is stripped before numeric parsing: currency symbols,
// thousands separators and whitespace as they appear in formatted cells.
var numericNoise = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "")

func cell(row sheet.Row, column string) (string, error) {
	v, ok := row.Get(column)
	if !ok {
		return "", fmt.Errorf("%w: %q (line %d)", ErrColumnMissing, column, row.Line)
	}
	return strings.TrimSpace(v), nil
}

func parseDecimal(row sheet.Row, column, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(numericNoise.Replace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: column %q value %q (line %d)", ErrTypeConversion, column, raw, row.Line)
	}
	return d, nil
}

// parseText returns the cell as-is, trimmed. Blank is a valid value.
func parseText(row sheet.Row, column string) (string, error) {
	return cell(row, column)
}

// parseInt accepts whole numbers, including "12.0" as rendered for numeric cells.
func parseInt(row sheet.Row, column string) (int64, error) {
	raw, err := cell(row, column)
	if err != nil {
		return 0, err
	}
	d, err := parseDecimal(row, column, raw)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: column %q value %q is not an integer (line %d)", ErrTypeConversion, column, raw, row.Line)
	}
	return d.IntPart(), nil
}

func parseFloat(row sheet.Row, column string) (float64, error) {
	raw, err := cell(row, column)
	if err != nil {
		return 0, err
	}
	d, err := parseDecimal(row, column, raw)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// parseOptionalFloat is parseFloat with blank and NaN cells mapped to 0.
func parseOptionalFloat(row sheet.Row, column string) (float64, error) {
	raw, err := cell(row, column)
	if err != nil {
		return 0, err
	}
	if raw == "" || strings.EqualFold(raw, "nan") {
		return 0, nil
	}
	d, err := parseDecimal(row, column, raw)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
