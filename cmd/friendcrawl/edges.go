package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/friendcrawl/internal/report"
)

// NewEdgesCmd creates the edges command.
func NewEdgesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edges <graph-file>",
		Short: "Convert a collected graph into a CSV edge list",
		Long: `Edges converts a graph written by crawl into a CSV edge list.

Each (user, friend) pair becomes one row:

  UserID,FriendID,FriendCount,HasMultipleFriends

HasMultipleFriends is "Multiple Friends" when the user has more than one
friend and "Single/No Friends" otherwise. Users without friends produce no
rows. The input may be a JSON graph or a SQLite export (.db).

Examples:
  # Print the edge list
  friendcrawl edges user_and_friends_data.json

  # Write it to a file
  friendcrawl edges graph.db -o edges.csv`,
		Args: cobra.ExactArgs(1),
		RunE: runEdgesCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Write CSV to specified file path (default: stdout)")

	return cmd
}

// runEdgesCmd executes the edges command.
func runEdgesCmd(cmd *cobra.Command, args []string) (err error) {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	g, _, err := loadGraph(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		dir := filepath.Dir(outputPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, openErr := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if openErr != nil {
			return fmt.Errorf("failed to create output file: %w", openErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close output file: %w", cerr)
			}
		}()
		out = f
	}

	if _, err := report.NewEdgeCSVWriter(out).WriteGraph(g); err != nil {
		return err
	}
	return nil
}
