package database

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"trades-export-go/internal/models"
)

// NewDatabase creates a new database connection and performs auto-migration.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates the export history tables. Existing history is kept.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.ExportRun{}, &models.TradeRecord{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// RunStore persists export runs and their trades.
type RunStore struct {
	db *gorm.DB
}

// NewRunStore creates a RunStore backed by db.
func NewRunStore(db *gorm.DB) *RunStore {
	return &RunStore{db: db}
}

// SaveRun stores run together with its trades in one transaction.
func (s *RunStore) SaveRun(ctx context.Context, run *models.ExportRun) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save export run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *RunStore) RecentRuns(ctx context.Context, limit int) ([]models.ExportRun, error) {
	var runs []models.ExportRun
	if err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list export runs: %w", err)
	}
	return runs, nil
}

// RunTrades returns the trades exported by the run with the given id, in export order.
func (s *RunStore) RunTrades(ctx context.Context, runID uint) ([]models.Trade, error) {
	var records []models.TradeRecord
	if err := s.db.WithContext(ctx).Where("export_run_id = ?", runID).Order("id asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load trades for run %d: %w", runID, err)
	}
	trades := make([]models.Trade, len(records))
	for i, r := range records {
		trades[i] = r.Trade()
	}
	return trades, nil
}
