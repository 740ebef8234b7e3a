package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/friendcrawl/internal/model"
)

// MarkdownSummaryWriter outputs the crawl summary in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownSummaryWriter struct {
	baseWriter

	// top is the number of rows in ranking tables.
	top int
}

// NewMarkdownSummaryWriter creates a MarkdownSummaryWriter that outputs to the given writer.
func NewMarkdownSummaryWriter(output io.Writer) *MarkdownSummaryWriter {
	return &MarkdownSummaryWriter{
		baseWriter: newBaseWriter(output),
		top:        DefaultTopN,
	}
}

// Write outputs the summary of a crawl run.
func (w *MarkdownSummaryWriter) Write(report *model.CrawlReport) (int, error) {
	return w.WriteSummary(NewSummary(report, w.top))
}

// WriteSummary outputs s in Markdown format.
func (w *MarkdownSummaryWriter) WriteSummary(s *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, s)
	w.writeAlert(md, s)
	w.writeDistribution(md, s)
	w.writeRanking(md, "Most Connected Users", "Friends", s.TopUsers)
	w.writeRanking(md, "Most Referenced Uncollected Users", "References", s.TopUncollected)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and overview table.
func (w *MarkdownSummaryWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	md.H1("Friend Graph Report")
	md.PlainText("")

	rows := make([][]string, 0, 10)
	if s.HasRun {
		rows = append(rows,
			[]string{"Status", s.Status},
			[]string{"Seed", "`" + s.Seed.String() + "`"},
			[]string{"Steps", strconv.Itoa(s.Steps)},
			[]string{"Budget Used", strconv.Itoa(s.BudgetUsed)},
			[]string{"Visited", strconv.Itoa(s.Visited)},
			[]string{"Frontier Remaining", strconv.Itoa(s.FrontierRemaining)},
			[]string{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
		)
	}
	rows = append(rows,
		[]string{"Users", strconv.Itoa(s.Users)},
		[]string{"Edges", strconv.Itoa(s.Edges)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeAlert writes an alert describing how complete the graph is.
func (w *MarkdownSummaryWriter) writeAlert(md *markdown.Markdown, s *Summary) {
	if !s.HasRun {
		md.Note("Summary built from a saved graph; run details are not available.")
		md.PlainText("")
		return
	}

	switch {
	case s.Error != "":
		md.Cautionf("Crawl failed: %s", s.Error)
	case s.Cancelled:
		md.Warningf("Crawl was cancelled. %d queued user(s) were not collected.", s.FrontierRemaining)
	case s.BudgetExhausted:
		md.Importantf("Iteration budget exhausted. %d queued user(s) were not collected.", s.FrontierRemaining)
	default:
		md.Tip("Crawl completed; every reachable user within the budget was collected.")
	}
	md.PlainText("")
}

// writeDistribution writes the friend count distribution and its pie chart.
func (w *MarkdownSummaryWriter) writeDistribution(md *markdown.Markdown, s *Summary) {
	md.H2("Friend Count Distribution")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Label", "Users"},
		Rows: [][]string{
			{model.LabelMultipleFriends, strconv.Itoa(s.MultipleFriends)},
			{model.LabelSingleOrNone, strconv.Itoa(s.SingleOrNone)},
		},
	})
	md.PlainText("")

	if s.Users == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Users by Friend Count"),
		piechart.WithShowData(true),
	)
	if s.MultipleFriends > 0 {
		chart.LabelAndIntValue(model.LabelMultipleFriends, uint64(s.MultipleFriends)) //nolint:gosec // count is non-negative
	}
	if s.SingleOrNone > 0 {
		chart.LabelAndIntValue(model.LabelSingleOrNone, uint64(s.SingleOrNone)) //nolint:gosec // count is non-negative
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeRanking writes one ranking table, or a placeholder when empty.
func (w *MarkdownSummaryWriter) writeRanking(md *markdown.Markdown, title, countHeader string, list []UserCount) {
	md.H2(title)
	md.PlainText("")

	if len(list) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(list))
	for i, uc := range list {
		name := uc.Name
		if name == "" {
			name = "-"
		}
		rows[i] = []string{strconv.Itoa(i + 1), "`" + uc.ID.String() + "`", name, strconv.Itoa(uc.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "User", "Name", countHeader},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownSummaryWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by friendcrawl*")
}
