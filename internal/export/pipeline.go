package export

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"trades-export-go/internal/config"
	"trades-export-go/internal/models"
	"trades-export-go/internal/sheet"
)

// RowReader loads worksheet rows. sheet.ReadRows satisfies it.
type RowReader func(path, sheetName string) ([]sheet.Row, error)

// RunStore keeps a history of exports.
type RunStore interface {
	SaveRun(ctx context.Context, run *models.ExportRun) error
}

// Exporter runs the spreadsheet to JSON export.
type Exporter struct {
	logger   *zap.Logger
	cfg      config.Export
	read     RowReader
	writer   *Writer
	reporter *Reporter
	store    RunStore // optional
}

// NewExporter creates an Exporter. store may be nil.
func NewExporter(logger *zap.Logger, cfg config.Export, read RowReader, writer *Writer, reporter *Reporter, store RunStore) *Exporter {
	return &Exporter{
		logger:   logger,
		cfg:      cfg,
		read:     read,
		writer:   writer,
		reporter: reporter,
		store:    store,
	}
}

// Run performs one export. Every row is mapped before the output file is
// touched, so a failed read or mapping leaves any previous file in place.
func (e *Exporter) Run(ctx context.Context) (Document, error) {
	l := e.logger.With(
		zap.String("input", e.cfg.InputPath),
		zap.String("sheet", e.cfg.Sheet),
	)

	rows, err := e.read(e.cfg.InputPath, e.cfg.Sheet)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read trades: %w", err)
	}
	l.Debug("Loaded worksheet rows", zap.Int("rows", len(rows)))

	trades, unknown, err := MapRows(rows, e.cfg.Market, e.cfg.StrictSide)
	if err != nil {
		return Document{}, fmt.Errorf("failed to map trades: %w", err)
	}
	if unknown > 0 {
		l.Warn("Rows with unrecognized side exported as SELL", zap.Int("count", unknown))
	}

	counts, err := Breakdown(rows, e.strategyColumn())
	if err != nil {
		return Document{}, fmt.Errorf("failed to count strategies: %w", err)
	}

	doc, err := e.writer.Write(trades)
	if err != nil {
		return Document{}, err
	}
	l.Info("Export written", zap.String("output", e.writer.Path()), zap.Int("total", doc.Total))

	e.reporter.Exported(doc.Total, e.writer.Path())
	e.reporter.Breakdown(counts)

	if e.store != nil {
		e.archive(ctx, doc)
	}
	return doc, nil
}

func (e *Exporter) strategyColumn() string {
	if e.cfg.StrategyColumn == "" {
		return ColumnStrategy
	}
	return e.cfg.StrategyColumn
}

// archive stores the run in the history database. The JSON file is already
// written at this point, so failures are only logged.
func (e *Exporter) archive(ctx context.Context, doc Document) {
	run := &models.ExportRun{
		Source:  e.cfg.InputPath,
		Sheet:   e.cfg.Sheet,
		Output:  e.writer.Path(),
		Total:   doc.Total,
		Updated: doc.Updated,
		Trades:  make([]models.TradeRecord, 0, len(doc.Trades)),
	}
	for _, t := range doc.Trades {
		run.Trades = append(run.Trades, models.NewTradeRecord(t))
	}
	if err := e.store.SaveRun(ctx, run); err != nil {
		e.logger.Error("Failed to archive export run", zap.Error(err))
		return
	}
	e.logger.Info("Export run archived", zap.Uint("run_id", run.ID))
}
