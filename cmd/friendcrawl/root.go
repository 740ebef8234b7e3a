package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for friendcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friendcrawl",
		Short: "Rate-limited friend graph crawler for the Roblox public API",
		Long: `friendcrawl collects a bounded friend graph from the Roblox public API.

It probes user IDs upward from a start ID until it finds an active user with
enough friends, then walks the friend graph breadth-first within a fixed
iteration budget. Requests are paced below the upstream rate limit and
rate-limited responses are retried with exponential backoff.

The collected graph is written even when the crawl is interrupted or the
budget runs out, so long crawls can be stopped at any time with Ctrl+C.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewEdgesCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
