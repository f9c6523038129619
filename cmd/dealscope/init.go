package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [deal-id]",
	Short: "Initialize a dealscope workspace in the current directory",
	Long: `Initialize a dealscope workspace by creating a .dealscope/ directory.

This creates:
  - .dealscope/ directory
  - .dealscope/dealscope.db (SQLite database)
  - .dealscope/drop/ (drop directory for extraction output)

If a deal ID is provided it is recorded and stamped on every run.

Example:
  cd ~/deals/project-osprey
  dealscope init project-osprey`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(cfg.DropDir, 0755); err != nil {
			return fmt.Errorf("failed to create drop directory: %w", err)
		}
		// Database itself was created by the pre-run open.
		if len(args) > 0 {
			if err := store.SetConfig(cmd.Context(), "deal_id", args[0]); err != nil {
				return err
			}
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("\n%s Initialized dealscope workspace\n\n", green("✓"))
		fmt.Printf("  Database: %s\n", cyan(cfg.DatabasePath))
		fmt.Printf("  Drop directory: %s\n", cyan(cfg.DropDir))
		if len(args) > 0 {
			fmt.Printf("  Deal: %s\n", cyan(args[0]))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
