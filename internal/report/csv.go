package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/friendcrawl/internal/model"
)

// edgeCSVHeader is the fixed header of the edge list.
var edgeCSVHeader = []string{"UserID", "FriendID", "FriendCount", "HasMultipleFriends"}

// EdgeCSVWriter writes the graph as an edge list with one row per
// (user, friend) pair. Users without friends produce no rows. Rows are
// ordered by user ID, then by the friend order the API returned.
type EdgeCSVWriter struct {
	baseWriter
}

// NewEdgeCSVWriter creates an EdgeCSVWriter that outputs to the given writer.
func NewEdgeCSVWriter(output io.Writer) *EdgeCSVWriter {
	return &EdgeCSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the edge list for report.Graph.
func (w *EdgeCSVWriter) Write(report *model.CrawlReport) (int, error) {
	return w.WriteGraph(report.Graph)
}

// WriteGraph outputs the edge list for g.
func (w *EdgeCSVWriter) WriteGraph(g model.Graph) (int, error) {
	cw := &countingWriter{w: w.output}
	out := csv.NewWriter(cw)

	if err := out.Write(edgeCSVHeader); err != nil {
		return cw.n, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range g.Edges() {
		record := []string{
			e.UserID.String(),
			e.FriendID.String(),
			strconv.Itoa(e.FriendCount),
			e.HasMultipleFriends,
		}
		if err := out.Write(record); err != nil {
			return cw.n, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return cw.n, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return cw.n, nil
}
