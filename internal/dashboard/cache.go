package dashboard

import (
	"sort"
	"sync"
	"time"

	"trades-export-go/internal/export"
	"trades-export-go/internal/models"
)

// Sources reported alongside served trades.
const (
	SourceFile       = "file"
	SourceCache      = "cache"
	SourceCacheStale = "cache-stale"
)

// DocumentLoader reads the exported document. export.ReadDocument satisfies it.
type DocumentLoader func(path string) (export.Document, error)

// TradeCache serves the exported trades, re-reading the file at most once per TTL.
type TradeCache struct {
	mu       sync.Mutex
	path     string
	ttl      time.Duration
	load     DocumentLoader
	now      func() time.Time
	trades   []models.Trade
	loadedAt time.Time
	valid    bool
}

// NewTradeCache creates a cache over the document at path.
func NewTradeCache(path string, ttl time.Duration, load DocumentLoader, now func() time.Time) *TradeCache {
	if now == nil {
		now = time.Now
	}
	return &TradeCache{path: path, ttl: ttl, load: load, now: now}
}

// Trades returns the trades sorted by id descending and where they came from.
// If reading fails and an earlier copy exists, that copy is returned as
// SourceCacheStale together with the read error.
func (c *TradeCache) Trades() ([]models.Trade, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.valid && now.Sub(c.loadedAt) < c.ttl {
		return c.trades, SourceCache, nil
	}

	doc, err := c.load(c.path)
	if err != nil {
		if c.valid {
			return c.trades, SourceCacheStale, err
		}
		return nil, "", err
	}

	trades := make([]models.Trade, len(doc.Trades))
	copy(trades, doc.Trades)
	sort.SliceStable(trades, func(i, j int) bool { return trades[i].ID > trades[j].ID })

	c.trades = trades
	c.loadedAt = now
	c.valid = true
	return trades, SourceFile, nil
}
