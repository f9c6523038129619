package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oakmont/dealscope/internal/types"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show recent runs, or one run's per-domain completion report",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		if len(args) == 0 {
			runs, err := store.ListRuns(ctx, statusLimit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs yet. Use 'dealscope run' to start one.")
				return nil
			}
			fmt.Println()
			for _, run := range runs {
				mark := green("✓")
				if run.State != types.RunCompleted {
					mark = yellow("!")
				}
				fmt.Printf("  %s %s  %-12s %-12s %s\n",
					mark, cyan(run.ID), run.DealType, run.State,
					run.StartedAt.Format("2006-01-02 15:04"))
			}
			fmt.Println()
			return nil
		}

		run, err := store.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		statuses, err := store.GetDomainStatuses(ctx, run.ID)
		if err != nil {
			return err
		}

		fmt.Printf("\nRun %s (%s, %s)\n\n", cyan(run.ID), run.DealType, run.State)
		for _, st := range statuses {
			mark := green("✓")
			if st.State == types.DomainFailed {
				mark = red("✗")
			} else if st.Error != "" {
				mark = yellow("!")
			}
			fmt.Printf("  %s %-16s overlaps=%-3d findings=%-3d rejected=%d\n",
				mark, st.Domain, st.OverlapCount, st.FindingCount, st.RejectedCount)
			if st.Error != "" {
				fmt.Printf("      %s\n", st.Error)
			}
		}
		fmt.Println()
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 20, "Number of recent runs to show")
	rootCmd.AddCommand(statusCmd)
}
