package export

import (
	"fmt"
	"io"
	"sort"

	"trades-export-go/internal/sheet"
)

// Count is the number of rows holding one distinct column value.
type Count struct {
	Value string
	Count int
}

// Breakdown counts the distinct values of column across rows, most frequent
// first. Equal counts keep the order in which values first appeared.
func Breakdown(rows []sheet.Row, column string) ([]Count, error) {
	index := make(map[string]int)
	var counts []Count
	for _, row := range rows {
		v, err := parseText(row, column)
		if err != nil {
			return nil, err
		}
		i, ok := index[v]
		if !ok {
			i = len(counts)
			index[v] = i
			counts = append(counts, Count{Value: v})
		}
		counts[i].Count++
	}
	sort.SliceStable(counts, func(a, b int) bool {
		return counts[a].Count > counts[b].Count
	})
	return counts, nil
}

// Reporter prints export results for a human at the console.
type Reporter struct {
	out io.Writer
}

// NewReporter creates a Reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Exported prints the confirmation line for a written document.
func (r *Reporter) Exported(total int, path string) {
	fmt.Fprintf(r.out, "✓ Exported %d trades to %s\n", total, path)
}

// Breakdown prints the per-strategy counts under a header with the number of strategies.
func (r *Reporter) Breakdown(counts []Count) {
	fmt.Fprintf(r.out, "\nStrategy breakdown (%d strategies):\n", len(counts))
	for _, c := range counts {
		fmt.Fprintf(r.out, "  %s: %d\n", c.Value, c.Count)
	}
}
