package report

import (
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nao1215/friendcrawl/internal/model"
)

// TextSummaryWriter prints a crawl summary as terminal tables.
type TextSummaryWriter struct {
	baseWriter

	// top is the number of rows in ranking tables.
	top int

	// style is the go-pretty table style.
	style table.Style
}

// TextSummaryWriterOption configures a TextSummaryWriter.
type TextSummaryWriterOption func(*TextSummaryWriter)

// WithTextTopN sets the number of rows in ranking tables.
func WithTextTopN(n int) TextSummaryWriterOption {
	return func(w *TextSummaryWriter) {
		w.top = n
	}
}

// WithTableStyle sets the table style, e.g. table.StyleDefault for plain ASCII.
func WithTableStyle(style table.Style) TextSummaryWriterOption {
	return func(w *TextSummaryWriter) {
		w.style = style
	}
}

// NewTextSummaryWriter creates a TextSummaryWriter that outputs to the given writer.
func NewTextSummaryWriter(output io.Writer, opts ...TextSummaryWriterOption) *TextSummaryWriter {
	w := &TextSummaryWriter{
		baseWriter: newBaseWriter(output),
		top:        DefaultTopN,
		style:      table.StyleLight,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write prints the summary of a crawl run.
func (w *TextSummaryWriter) Write(report *model.CrawlReport) (int, error) {
	return w.WriteSummary(NewSummary(report, w.top))
}

// WriteSummary prints s.
func (w *TextSummaryWriter) WriteSummary(s *Summary) (int, error) {
	cw := &countingWriter{w: w.output}

	overview := w.newTable(cw, "Crawl Summary")
	overview.AppendHeader(table.Row{"Property", "Value"})
	if s.HasRun {
		overview.AppendRow(table.Row{"Status", s.Status})
		overview.AppendRow(table.Row{"Seed", s.Seed.String()})
		overview.AppendRow(table.Row{"Steps", s.Steps})
		overview.AppendRow(table.Row{"Budget Used", s.BudgetUsed})
		overview.AppendRow(table.Row{"Visited", s.Visited})
		overview.AppendRow(table.Row{"Frontier Remaining", s.FrontierRemaining})
		overview.AppendRow(table.Row{"Elapsed", s.Elapsed.Round(time.Millisecond).String()})
		if s.Error != "" {
			overview.AppendRow(table.Row{"Error", s.Error})
		}
	}
	overview.AppendRow(table.Row{"Users", s.Users})
	overview.AppendRow(table.Row{"Edges", s.Edges})
	overview.AppendRow(table.Row{model.LabelMultipleFriends, s.MultipleFriends})
	overview.AppendRow(table.Row{model.LabelSingleOrNone, s.SingleOrNone})
	overview.Render()

	if len(s.TopUsers) > 0 {
		_, _ = io.WriteString(cw, "\n") //nolint:errcheck // spacing only
		w.renderRanking(cw, "Most Connected Users", "Friends", s.TopUsers)
	}
	if len(s.TopUncollected) > 0 {
		_, _ = io.WriteString(cw, "\n") //nolint:errcheck // spacing only
		w.renderRanking(cw, "Most Referenced Uncollected Users", "References", s.TopUncollected)
	}

	return cw.n, nil
}

// renderRanking prints one ranking table.
func (w *TextSummaryWriter) renderRanking(out io.Writer, title, countHeader string, rows []UserCount) {
	t := w.newTable(out, title)
	t.AppendHeader(table.Row{"#", "User", "Name", countHeader})
	for i, uc := range rows {
		t.AppendRow(table.Row{strconv.Itoa(i + 1), uc.ID.String(), uc.Name, uc.Count})
	}
	t.Render()
}

// newTable creates a table writer mirroring to out.
func (w *TextSummaryWriter) newTable(out io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(w.style)
	t.SetTitle(title)
	return t
}
