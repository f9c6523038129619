package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oakmont/dealscope/internal/cost"
	"github.com/oakmont/dealscope/internal/storage"
	"github.com/oakmont/dealscope/internal/types"
)

var costDealType string

var costCmd = &cobra.Command{
	Use:   "cost <run-id>",
	Short: "Show priced work items and the TSA estimate for a run",
	Long: `Show the cost output for a run: each work item's base and adjusted
cost under the deal-type multiplier, plus the transitional-service
estimate for carve-outs.

With --deal-type, reprices the run's work items under a different deal
structure without rerunning the analysis. Estimates are derived
records; repricing replaces them.

Example:
  dealscope cost 4f8a...
  dealscope cost 4f8a... --deal-type divestiture`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		run, err := store.GetRun(ctx, args[0])
		if err != nil {
			return err
		}

		estimates, err := store.GetCostEstimates(ctx, run.ID)
		if err != nil {
			return err
		}
		tsa, err := store.GetTSAEstimate(ctx, run.ID)
		if err != nil {
			return err
		}

		if costDealType != "" {
			dealType, err := types.ParseDealType(costDealType)
			if err != nil {
				return err
			}
			estimates, tsa, err = repriceRun(ctx, store, cfg.Cost, run.ID, dealType, cfg.Pipeline.TSADurationMonths)
			if err != nil {
				return err
			}
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		bold := color.New(color.Bold).SprintFunc()

		dealType := run.DealType
		if len(estimates) > 0 {
			dealType = estimates[0].DealType
		}
		fmt.Printf("\nRun %s: costs under %s\n\n", cyan(run.ID), bold(dealType))

		if len(estimates) == 0 {
			fmt.Println("  No work items to price.")
		}
		var total float64
		for _, est := range estimates {
			total += est.AdjustedCost
			fmt.Printf("  %-28s %-16s $%11.0f × %.2f = $%11.0f\n",
				est.WorkItemID, est.Category, est.BaseCost, est.Multiplier, est.AdjustedCost)
		}
		if len(estimates) > 0 {
			fmt.Printf("\n  %s $%.0f\n", bold("Total adjusted cost:"), total)
		}

		if tsa != nil {
			fmt.Println()
			if tsa.TotalCost > 0 {
				clamp := ""
				if tsa.Clamped {
					clamp = " (clamped)"
				}
				fmt.Printf("  TSA: %d shared apps, %d shared infra → $%.0f/month%s × %d months = $%.0f\n",
					tsa.SharedApplications, tsa.SharedInfrastructure,
					tsa.MonthlyCost, clamp, tsa.DurationMonths, tsa.TotalCost)
			} else {
				fmt.Printf("  TSA: none (%s)\n", tsa.Assumptions)
			}
		}
		fmt.Println()
		return nil
	},
}

// repriceRun recomputes a run's estimates under a different deal type
// and persists the replacements. The TSA is recounted from the run's
// stored inventory and overlaps, so the repriced figure reflects the
// same shared-item counts as the original run.
func repriceRun(ctx context.Context, st storage.Storage, costCfg cost.Config, runID string, dealType types.DealType, fallbackMonths int) ([]types.CostEstimate, *types.TSAEstimate, error) {
	findings, err := st.GetFindings(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	overlaps, err := st.GetOverlaps(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	inventory, err := st.GetInventory(ctx, runID)
	if err != nil {
		return nil, nil, err
	}

	months := fallbackMonths
	if prev, err := st.GetTSAEstimate(ctx, runID); err != nil {
		return nil, nil, err
	} else if prev != nil && prev.DurationMonths > 0 {
		months = prev.DurationMonths
	}

	model, err := cost.NewModel(costCfg)
	if err != nil {
		return nil, nil, err
	}
	estimates, err := model.EstimateAll(findings, dealType)
	if err != nil {
		return nil, nil, err
	}
	tsa, err := model.TSA(dealType, inventory, overlaps, months)
	if err != nil {
		return nil, nil, err
	}

	if err := st.SaveCostEstimates(ctx, runID, estimates); err != nil {
		return nil, nil, err
	}
	if err := st.SaveTSAEstimate(ctx, runID, tsa); err != nil {
		return nil, nil, err
	}
	return estimates, tsa, nil
}

func init() {
	costCmd.Flags().StringVar(&costDealType, "deal-type", "", "Reprice under a different deal structure")
	rootCmd.AddCommand(costCmd)
}
