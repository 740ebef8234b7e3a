package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/friendcrawl/internal/config"
)

//go:embed templates/friendcrawl.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new friendcrawl configuration file",
		Long: `Initialize creates a new .friendcrawl configuration file in the current directory.

The generated file lists every setting with its default value commented out:
- Seed selection and collection budgets
- Retry backoff and pacing delays
- HTTP headers, proxy and upstream endpoints
- Output file, format and summary

Examples:
  # Create .friendcrawl in current directory
  friendcrawl init

  # Create config file in the XDG config directory
  friendcrawl init -o ~/.config/friendcrawl/config.yaml

  # Force overwrite existing file
  friendcrawl init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/friendcrawl.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Headers may carry a session cookie, so keep the file private.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to adjust settings such as:")
	fmt.Fprintln(out, "  - Start ID and seed friend threshold")
	fmt.Fprintln(out, "  - Iteration budgets and pacing delays")
	fmt.Fprintln(out, "  - Output file and format")

	return nil
}
