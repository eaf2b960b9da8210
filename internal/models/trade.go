package models

import "gorm.io/gorm"

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Trade is one exported trade record as consumed by the dashboard.
// Field order is the order of keys in the JSON document.
type Trade struct {
	ID       int64   `json:"id"`
	Time     string  `json:"time"`
	Strategy string  `json:"strategy"`
	Market   string  `json:"market"`
	Side     string  `json:"side"` // "BUY" or "SELL"
	Entry    float64 `json:"entry"`
	Exit     float64 `json:"exit"` // 0 when the trade has no exit price
	PnL      float64 `json:"pnl"`
	Status   string  `json:"status"`
}

// ExportRun records a single successful export in the history database.
type ExportRun struct {
	gorm.Model
	Source  string        `json:"source"`
	Sheet   string        `json:"sheet"`
	Output  string        `json:"output"`
	Total   int           `json:"total"`
	Updated string        `json:"updated"`
	Trades  []TradeRecord `json:"-"`
}

// TradeRecord is the persisted form of a Trade, scoped to the run that exported it.
type TradeRecord struct {
	gorm.Model
	ExportRunID uint    `gorm:"index"`
	TradeID     int64   `gorm:"index"`
	Time        string
	Strategy    string  `gorm:"index"`
	Market      string
	Side        string
	Entry       float64
	Exit        float64
	PnL         float64 `gorm:"column:pnl"`
	Status      string
}

// NewTradeRecord copies t into a TradeRecord.
func NewTradeRecord(t Trade) TradeRecord {
	return TradeRecord{
		TradeID:  t.ID,
		Time:     t.Time,
		Strategy: t.Strategy,
		Market:   t.Market,
		Side:     t.Side,
		Entry:    t.Entry,
		Exit:     t.Exit,
		PnL:      t.PnL,
		Status:   t.Status,
	}
}

// Trade converts the record back to its exported form.
func (r TradeRecord) Trade() Trade {
	return Trade{
		ID:       r.TradeID,
		Time:     r.Time,
		Strategy: r.Strategy,
		Market:   r.Market,
		Side:     r.Side,
		Entry:    r.Entry,
		Exit:     r.Exit,
		PnL:      r.PnL,
		Status:   r.Status,
	}
}
