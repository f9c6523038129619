package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oakmont/dealscope/internal/ai"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the workspace is ready for a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		failed := false

		check := func(name string, err error) {
			if err != nil {
				failed = true
				fmt.Printf("  %s %s: %v\n", red("✗"), name, err)
				return
			}
			fmt.Printf("  %s %s\n", green("✓"), name)
		}

		fmt.Println()
		// Database was opened by the pre-run; reaching here means it works.
		check("database", nil)

		var dropErr error
		if _, err := os.Stat(cfg.DropDir); err != nil {
			dropErr = fmt.Errorf("drop directory missing (run 'dealscope init'): %w", err)
		}
		check("drop directory", dropErr)

		analyst, err := ai.NewAnalyst(&ai.Config{})
		if err == nil {
			err = analyst.HealthCheck(cmd.Context())
		}
		check("reasoning capability", err)

		fmt.Println()
		if failed {
			return fmt.Errorf("workspace is not ready")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
