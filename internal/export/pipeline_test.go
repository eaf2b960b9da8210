package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"trades-export-go/internal/config"
	"trades-export-go/internal/models"
	"trades-export-go/internal/sheet"
)

// MockRunStore is a mock implementation of RunStore.
type MockRunStore struct {
	mock.Mock
}

func (m *MockRunStore) SaveRun(ctx context.Context, run *models.ExportRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func staticRows(rows []sheet.Row, err error) RowReader {
	return func(path, sheetName string) ([]sheet.Row, error) {
		return rows, err
	}
}

func setupExporter(t *testing.T, read RowReader, store RunStore) (*Exporter, string, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "public", "trades.json")
	cfg := config.Export{
		InputPath: "results.xlsx",
		Sheet:     "All Trades",
		Market:    "BTC-5M",
	}
	var out bytes.Buffer
	w := NewWriter(path, fixedClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)))
	return NewExporter(zap.NewNop(), cfg, read, w, NewReporter(&out), store), path, &out
}

func TestExporter_Run(t *testing.T) {
	rows := []sheet.Row{
		tradeRow(2, "1", "MOMENTUM", "UP", "105.0"),
		tradeRow(3, "2", "VWAP", "DOWN", ""),
		tradeRow(4, "3", "MOMENTUM", "UP", "99.5"),
	}
	e, path, out := setupExporter(t, staticRows(rows, nil), nil)

	doc, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, doc.Total)
	assert.Equal(t, models.SideBuy, doc.Trades[0].Side)
	assert.Equal(t, models.SideSell, doc.Trades[1].Side)
	assert.Equal(t, 0.0, doc.Trades[1].Exit)

	written, err := ReadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, doc, written)

	assert.Equal(t, fmt.Sprintf("✓ Exported 3 trades to %s\n\nStrategy breakdown (2 strategies):\n  MOMENTUM: 2\n  VWAP: 1\n", path), out.String())
}

func TestExporter_Run_Idempotent(t *testing.T) {
	rows := []sheet.Row{tradeRow(2, "1", "VWAP", "UP", "1")}
	e, path, _ := setupExporter(t, staticRows(rows, nil), nil)

	first, err := e.Run(context.Background())
	require.NoError(t, err)
	e.writer.now = fixedClock(time.Date(2024, 5, 2, 9, 0, 0, 0, time.Local))
	second, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Trades, second.Trades)
	assert.Equal(t, first.Total, second.Total)
	assert.NotEqual(t, first.Updated, second.Updated)

	written, err := ReadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, second.Updated, written.Updated)
}

func TestExporter_Run_FailuresLeavePreviousFile(t *testing.T) {
	badRow := tradeRow(2, "1", "VWAP", "UP", "1")
	badRow.Cells[ColumnEntryPrice] = "??"

	testCases := []struct {
		name    string
		read    RowReader
		wantErr error
	}{
		{"SheetNotFound", staticRows(nil, sheet.ErrSheetNotFound), sheet.ErrSheetNotFound},
		{"FileNotFound", staticRows(nil, sheet.ErrFileNotFound), sheet.ErrFileNotFound},
		{"TypeConversion", staticRows([]sheet.Row{tradeRow(2, "1", "VWAP", "UP", "1"), badRow}, nil), ErrTypeConversion},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, path, out := setupExporter(t, tc.read, nil)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
			require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

			_, err := e.Run(context.Background())
			assert.ErrorIs(t, err, tc.wantErr)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "previous", string(data))
			assert.Empty(t, out.String())
		})
	}
}

func TestExporter_Run_NoPriorFileOnFailure(t *testing.T) {
	e, path, _ := setupExporter(t, staticRows(nil, sheet.ErrSheetNotFound), nil)

	_, err := e.Run(context.Background())
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestExporter_Run_Archive(t *testing.T) {
	rows := []sheet.Row{
		tradeRow(2, "1", "MOMENTUM", "UP", "105.0"),
		tradeRow(3, "2", "VWAP", "DOWN", ""),
	}

	t.Run("Saved", func(t *testing.T) {
		store := new(MockRunStore)
		store.On("SaveRun", mock.Anything, mock.MatchedBy(func(run *models.ExportRun) bool {
			return run.Total == 2 && len(run.Trades) == 2 && run.Sheet == "All Trades" && run.Trades[1].TradeID == 2
		})).Return(nil)

		e, _, _ := setupExporter(t, staticRows(rows, nil), store)
		_, err := e.Run(context.Background())
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("StoreFailureDoesNotFailExport", func(t *testing.T) {
		store := new(MockRunStore)
		store.On("SaveRun", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		e, path, _ := setupExporter(t, staticRows(rows, nil), store)
		doc, err := e.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, doc.Total)
		assert.FileExists(t, path)
		store.AssertExpectations(t)
	})
}

func TestExporter_Run_WithWorkbook(t *testing.T) {
	e, _, _ := setupExporter(t, sheet.ReadRows, nil)
	e.cfg.InputPath = filepath.Join(t.TempDir(), "missing.xlsx")

	_, err := e.Run(context.Background())
	assert.ErrorIs(t, err, sheet.ErrFileNotFound)
}

func TestExporter_Run_StyledWorkbook(t *testing.T) {
	const sheetName = "All Trades"
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet(sheetName)
	require.NoError(t, err)

	header := []interface{}{ColumnTradeNumber, ColumnTime, ColumnStrategy, ColumnSide, ColumnEntryPrice, ColumnExitPrice, ColumnPnL, ColumnStatus}
	row := []interface{}{1, time.Date(2026, 2, 3, 14, 30, 45, 0, time.UTC), "MOMENTUM", "UP", 0.5371, 0.6849, 0.1478, "WIN"}
	require.NoError(t, f.SetSheetRow(sheetName, "A1", &header))
	require.NoError(t, f.SetSheetRow(sheetName, "A2", &row))
	twoDecimals, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheetName, "E2", "G2", twoDecimals))

	input := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, f.SaveAs(input))

	e, _, _ := setupExporter(t, sheet.ReadRows, nil)
	e.cfg.InputPath = input

	doc, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, doc.Trades, 1)

	trade := doc.Trades[0]
	assert.Equal(t, 0.5371, trade.Entry)
	assert.Equal(t, 0.6849, trade.Exit)
	assert.Equal(t, 0.1478, trade.PnL)
	assert.Equal(t, "2026-02-03 14:30:45", trade.Time)
	assert.Equal(t, models.SideBuy, trade.Side)
}
