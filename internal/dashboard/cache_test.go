package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trades-export-go/internal/export"
	"trades-export-go/internal/models"
)

// fakeClock is a settable time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// scriptedLoader returns the queued results in order and counts calls.
type scriptedLoader struct {
	results []loadResult
	calls   int
}

type loadResult struct {
	doc export.Document
	err error
}

func (l *scriptedLoader) Load(string) (export.Document, error) {
	r := l.results[min(l.calls, len(l.results)-1)]
	l.calls++
	return r.doc, r.err
}

func docWith(ids ...int64) export.Document {
	trades := make([]models.Trade, len(ids))
	for i, id := range ids {
		trades[i] = models.Trade{ID: id, Strategy: "VWAP"}
	}
	return export.NewDocument(trades, time.Now())
}

func TestTradeCache(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	loader := &scriptedLoader{results: []loadResult{
		{doc: docWith(1, 3, 2)},
		{err: errors.New("file locked")},
		{doc: docWith(4)},
	}}
	cache := NewTradeCache("trades.json", 30*time.Second, loader.Load, clock.Now)

	trades, source, err := cache.Trades()
	require.NoError(t, err)
	assert.Equal(t, SourceFile, source)
	require.Len(t, trades, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{trades[0].ID, trades[1].ID, trades[2].ID})

	clock.Advance(10 * time.Second)
	_, source, err = cache.Trades()
	require.NoError(t, err)
	assert.Equal(t, SourceCache, source)
	assert.Equal(t, 1, loader.calls)

	clock.Advance(30 * time.Second)
	trades, source, err = cache.Trades()
	assert.Error(t, err)
	assert.Equal(t, SourceCacheStale, source)
	assert.Len(t, trades, 3)

	trades, source, err = cache.Trades()
	require.NoError(t, err)
	assert.Equal(t, SourceFile, source)
	assert.Equal(t, int64(4), trades[0].ID)
}

func TestTradeCache_ErrorWithoutCache(t *testing.T) {
	loader := &scriptedLoader{results: []loadResult{{err: errors.New("missing")}}}
	cache := NewTradeCache("trades.json", time.Minute, loader.Load, nil)

	trades, source, err := cache.Trades()
	assert.Error(t, err)
	assert.Empty(t, source)
	assert.Nil(t, trades)
}
