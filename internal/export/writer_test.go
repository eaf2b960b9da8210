package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trades-export-go/internal/models"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public", "nested", "trades.json")
	now := time.Date(2024, 5, 1, 12, 30, 0, 123456000, time.Local)
	w := NewWriter(path, fixedClock(now))

	trades := []models.Trade{
		{ID: 1, Time: "12:00", Strategy: "VWAP", Market: "BTC-5M", Side: "BUY", Entry: 0.5, Exit: 0, PnL: -0.1, Status: "LOSS"},
	}
	doc, err := w.Write(trades)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Total)
	assert.Equal(t, "2024-05-01T12:30:00.123456", doc.Updated)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "{\n  \"trades\": [\n    {\n      \"id\": 1,"), content)
	assert.Contains(t, content, `"exit": 0,`)
	assert.Contains(t, content, `"total": 1,`)
	assert.Less(t, strings.Index(content, `"id"`), strings.Index(content, `"status"`))

	read, err := ReadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, doc, read)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestWriter_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.json")
	require.NoError(t, os.WriteFile(path, []byte("old content that is longer than the new document would be..........................................................................................................................................................."), 0o644))

	_, err := NewWriter(path, nil).Write(nil)
	require.NoError(t, err)

	doc, err := ReadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Total)
	assert.NotNil(t, doc.Trades)
	assert.Empty(t, doc.Trades)
}

func TestWriter_DirectoryNotCreatable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := NewWriter(filepath.Join(blocker, "trades.json"), nil).Write(nil)
	assert.ErrorIs(t, err, ErrWriteFailed)
}

func TestNewDocument_EmptyTradesEncodeAsArray(t *testing.T) {
	doc := NewDocument(nil, time.Now())
	assert.NotNil(t, doc.Trades)
	assert.Equal(t, 0, doc.Total)
}
