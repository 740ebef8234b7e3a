package database

import (
	"context"
	"fmt"

	"github.com/nao1215/friendcrawl/internal/model"
)

// Writer exports crawl reports to a SQLite file.
// It opens the file for each write, so one Writer may be reused across runs.
type Writer struct {
	path string
	opts Options
}

// NewWriter creates a Writer for the file at path.
func NewWriter(path string) *Writer {
	return &Writer{path: path, opts: DefaultOptions()}
}

// Write replaces the export at the writer's path with report.
// It returns the number of users stored.
func (w *Writer) Write(report *model.CrawlReport) (n int, err error) {
	edb, err := Open(w.path, w.opts)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := edb.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close database: %w", cerr)
		}
	}()

	return edb.SaveReport(context.Background(), report)
}

// LoadGraph reads the graph stored in an existing export file.
func LoadGraph(ctx context.Context, path string) (model.Graph, *CrawlInfo, error) {
	edb, err := Open(path, Options{CreateIfNotExists: false})
	if err != nil {
		return nil, nil, err
	}
	defer edb.Close()

	g, err := edb.LoadGraph(ctx)
	if err != nil {
		return nil, nil, err
	}
	info, err := edb.CrawlInfo(ctx)
	if err != nil {
		return nil, nil, err
	}
	return g, info, nil
}
