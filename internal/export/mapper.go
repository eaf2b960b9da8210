package export

import (
	"fmt"

	"trades-export-go/internal/models"
	"trades-export-go/internal/sheet"
)

// Worksheet column names.
const (
	ColumnTradeNumber = "Trade #"
	ColumnTime        = "Time"
	ColumnStrategy    = "Strategy"
	ColumnSide        = "Side"
	ColumnEntryPrice  = "Entry Price"
	ColumnExitPrice   = "Exit Price"
	ColumnPnL         = "P&L $"
	ColumnStatus      = "Status"
)

// Raw side values found in the worksheet.
const (
	SideUp   = "UP"
	SideDown = "DOWN"
)

// MapRow converts one worksheet row into a trade record.
// A side of exactly "UP" maps to BUY and any other value to SELL.
func MapRow(row sheet.Row, market string) (models.Trade, error) {
	t, _, err := mapRow(row, market)
	return t, err
}

// mapRow is MapRow that also returns the side cell as written.
func mapRow(row sheet.Row, market string) (models.Trade, string, error) {
	var (
		t   = models.Trade{Market: market}
		err error
	)
	if t.ID, err = parseInt(row, ColumnTradeNumber); err != nil {
		return models.Trade{}, "", err
	}
	if t.Time, err = parseText(row, ColumnTime); err != nil {
		return models.Trade{}, "", err
	}
	if t.Strategy, err = parseText(row, ColumnStrategy); err != nil {
		return models.Trade{}, "", err
	}
	side, ok := row.Get(ColumnSide)
	if !ok {
		return models.Trade{}, "", fmt.Errorf("%w: %q (line %d)", ErrColumnMissing, ColumnSide, row.Line)
	}
	t.Side = mapSide(side)
	if t.Entry, err = parseFloat(row, ColumnEntryPrice); err != nil {
		return models.Trade{}, "", err
	}
	if t.Exit, err = parseOptionalFloat(row, ColumnExitPrice); err != nil {
		return models.Trade{}, "", err
	}
	if t.PnL, err = parseFloat(row, ColumnPnL); err != nil {
		return models.Trade{}, "", err
	}
	if t.Status, err = parseText(row, ColumnStatus); err != nil {
		return models.Trade{}, "", err
	}
	return t, side, nil
}

func mapSide(side string) string {
	if side == SideUp {
		return models.SideBuy
	}
	return models.SideSell
}

// KnownSide reports whether side is one of the values the worksheet is expected
// to hold. Like mapSide it compares the cell exactly as written.
func KnownSide(side string) bool {
	return side == SideUp || side == SideDown
}

// MapRows maps every row in order. When strict is set, a row whose side is
// neither UP nor DOWN fails with ErrUnknownSide. unknown is the number of
// such rows that were mapped to SELL.
func MapRows(rows []sheet.Row, market string, strict bool) (trades []models.Trade, unknown int, err error) {
	trades = make([]models.Trade, 0, len(rows))
	for _, row := range rows {
		t, side, err := mapRow(row, market)
		if err != nil {
			return nil, 0, err
		}
		if !KnownSide(side) {
			if strict {
				return nil, 0, fmt.Errorf("%w: %q (line %d)", ErrUnknownSide, side, row.Line)
			}
			unknown++
		}
		trades = append(trades, t)
	}
	return trades, unknown, nil
}
