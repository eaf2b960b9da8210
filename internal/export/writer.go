package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/segmentio/encoding/json"

	"trades-export-go/internal/models"
)

// ErrWriteFailed is returned when the output directory or file cannot be written.
var ErrWriteFailed = errors.New("write failed")

// TimestampLayout renders Document.Updated as a local ISO-8601 timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Document is the JSON file the dashboard consumes.
type Document struct {
	Trades  []models.Trade `json:"trades"`
	Total   int            `json:"total"`
	Updated string         `json:"updated"`
}

// NewDocument wraps trades with their count and the time of the export.
func NewDocument(trades []models.Trade, now time.Time) Document {
	if trades == nil {
		trades = []models.Trade{}
	}
	return Document{
		Trades:  trades,
		Total:   len(trades),
		Updated: now.Local().Format(TimestampLayout),
	}
}

// Writer writes export documents to a fixed path.
type Writer struct {
	path string
	now  func() time.Time
}

// NewWriter creates a Writer for path. A nil now uses time.Now.
func NewWriter(path string, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{path: path, now: now}
}

// Path returns the destination file.
func (w *Writer) Path() string {
	return w.path
}

// Write builds the document for trades and replaces the destination file with it.
// Parent directories are created as needed. The new content is written to a
// temporary file first and renamed into place, so readers never see a partial document.
func (w *Writer) Write(trades []models.Trade) (Document, error) {
	doc := NewDocument(trades, w.now())

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Document{}, fmt.Errorf("failed to encode document: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Document{}, fmt.Errorf("%w: create directory %s: %v", ErrWriteFailed, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrWriteFailed, w.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Document{}, fmt.Errorf("%w: %s: %v", ErrWriteFailed, w.path, err)
	}
	if err := tmp.Close(); err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrWriteFailed, w.path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrWriteFailed, w.path, err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrWriteFailed, w.path, err)
	}
	return doc, nil
}

// ReadDocument loads a document previously written by Writer.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return doc, nil
}
