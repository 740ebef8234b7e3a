package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/friendcrawl/internal/database"
	"github.com/nao1215/friendcrawl/internal/model"
	"github.com/nao1215/friendcrawl/internal/report"
)

// isSQLiteFile reports whether path names a SQLite export by its extension.
func isSQLiteFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	default:
		return false
	}
}

// loadGraph reads a graph written by the crawl command. info is nil for
// JSON files and for exports written without run details.
func loadGraph(ctx context.Context, path string) (model.Graph, *database.CrawlInfo, error) {
	if isSQLiteFile(path) {
		return database.LoadGraph(ctx, path)
	}

	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	g, err := report.ReadGraphJSON(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil, nil
}
