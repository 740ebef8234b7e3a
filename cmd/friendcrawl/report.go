package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/friendcrawl/internal/report"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <graph-file>",
		Short: "Summarize a collected graph",
		Long: `Report prints a summary of a graph written by crawl.

The summary shows user and edge counts, the friend count distribution,
the most connected users and the most referenced users that were not
collected yet (good --start candidates for a follow-up crawl).
SQLite exports also carry the seed and status of the run.

Examples:
  # Table summary
  friendcrawl report user_and_friends_data.json

  # Markdown summary of a SQLite export, top 20 users
  friendcrawl report graph.db --markdown --top 20`,
		Args: cobra.ExactArgs(1),
		RunE: runReportCmd,
	}

	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown instead of tables")
	cmd.Flags().IntP("top", "n", report.DefaultTopN,
		"Number of rows in ranking tables")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, args []string) error {
	markdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	top, err := cmd.Flags().GetInt("top")
	if err != nil {
		return err
	}

	g, info, err := loadGraph(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	s := report.NewGraphSummary(g, top)
	if info != nil {
		s.HasRun = true
		s.Seed = info.Seed
		s.Status = info.Status
		s.Steps = info.Steps
		s.Visited = info.Steps
		s.BudgetUsed = info.BudgetUsed
		s.FrontierRemaining = info.FrontierRemaining
		s.BudgetExhausted = info.BudgetExhausted
		s.Cancelled = info.Cancelled
		s.Elapsed = info.Elapsed
	}

	out := cmd.OutOrStdout()
	if markdown {
		_, err = report.NewMarkdownSummaryWriter(out).WriteSummary(s)
	} else {
		_, err = report.NewTextSummaryWriter(out, report.WithTextTopN(top)).WriteSummary(s)
	}
	return err
}
