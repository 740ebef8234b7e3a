package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/friendcrawl/internal/model"
)

// defaultGraphIndent matches the layout of graph files written by earlier
// versions of the crawler.
const defaultGraphIndent = "    "

// GraphJSONWriter writes the collected graph as a JSON object keyed by the
// decimal user ID. Each value holds "user_info" (the lookup payload as
// received) and "friends" (always an array).
type GraphJSONWriter struct {
	baseWriter

	// indent is the per-level indentation. Empty means compact output.
	indent string
}

// GraphJSONWriterOption configures a GraphJSONWriter.
type GraphJSONWriterOption func(*GraphJSONWriter)

// WithIndent sets the indentation string for each level.
func WithIndent(indent string) GraphJSONWriterOption {
	return func(w *GraphJSONWriter) {
		w.indent = indent
	}
}

// WithCompact disables indentation.
func WithCompact() GraphJSONWriterOption {
	return func(w *GraphJSONWriter) {
		w.indent = ""
	}
}

// NewGraphJSONWriter creates a GraphJSONWriter that outputs to the given writer.
func NewGraphJSONWriter(output io.Writer, opts ...GraphJSONWriterOption) *GraphJSONWriter {
	w := &GraphJSONWriter{
		baseWriter: newBaseWriter(output),
		indent:     defaultGraphIndent,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs report.Graph.
func (w *GraphJSONWriter) Write(report *model.CrawlReport) (int, error) {
	return w.WriteGraph(report.Graph)
}

// WriteGraph outputs g. A nil graph is written as {}.
func (w *GraphJSONWriter) WriteGraph(g model.Graph) (int, error) {
	if g == nil {
		g = model.NewGraph()
	}

	var data []byte
	var err error
	if w.indent != "" {
		data, err = json.MarshalIndent(g, "", w.indent)
	} else {
		data, err = json.Marshal(g)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to encode graph: %w", err)
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// ReadGraphJSON decodes a graph written by GraphJSONWriter.
func ReadGraphJSON(r io.Reader) (model.Graph, error) {
	g := model.NewGraph()
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	return g, nil
}
