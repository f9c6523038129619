package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oakmont/dealscope/internal/ai"
	"github.com/oakmont/dealscope/internal/consolidate"
	"github.com/oakmont/dealscope/internal/cost"
	"github.com/oakmont/dealscope/internal/ingest"
	"github.com/oakmont/dealscope/internal/overlap"
	"github.com/oakmont/dealscope/internal/pipeline"
	"github.com/oakmont/dealscope/internal/reasoning"
	"github.com/oakmont/dealscope/internal/types"
)

var (
	runDealType  string
	runFactsPath string
	runGapsPath  string
	runInvPath   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the analysis pipeline over staged extraction output",
	Long: `Run overlap detection, reasoning, consolidation, and costing over
the staged facts and gaps.

Input defaults to the staged files in the drop directory; --facts,
--gaps, and --inventory override per invocation. The deal type must be
one of acquisition, carveout, or divestiture; there is no default.

A capability failure in one domain degrades that domain and the run
continues. Ctrl+C cancels the run; partial results are recorded with
the run marked incomplete.

Example:
  dealscope run --deal-type carveout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runDealType == "" {
			runDealType = cfg.DealType
		}
		dealType, err := types.ParseDealType(runDealType)
		if err != nil {
			return err
		}

		input := pipeline.Input{DealID: cfg.DealID, DealType: dealType}
		if input.DealID == "" {
			input.DealID, _ = store.GetConfig(cmd.Context(), "deal_id")
		}

		factsPath := orDefault(runFactsPath, filepath.Join(cfg.DropDir, "facts.jsonl"))
		input.Facts, err = ingest.LoadFactsFile(factsPath)
		if err != nil {
			return err
		}

		gapsPath := orDefault(runGapsPath, filepath.Join(cfg.DropDir, "gaps.jsonl"))
		if input.Gaps, err = ingest.LoadGapsFile(gapsPath); err != nil {
			if !errors.Is(err, os.ErrNotExist) || runGapsPath != "" {
				return err
			}
			input.Gaps = nil // staged gaps are optional
		}

		invPath := orDefault(runInvPath, filepath.Join(cfg.DropDir, "inventory.json"))
		if input.Inventory, err = ingest.LoadInventoryFile(invPath); err != nil {
			if !errors.Is(err, os.ErrNotExist) || runInvPath != "" {
				return err
			}
			input.Inventory = nil
		}

		analyst, err := ai.NewAnalyst(&ai.Config{})
		if err != nil {
			return err
		}
		engine, err := overlap.New(analyst, cfg.Overlap)
		if err != nil {
			return err
		}
		orch, err := reasoning.New(analyst)
		if err != nil {
			return err
		}
		cons, err := consolidate.New(cfg.Consolidate)
		if err != nil {
			return err
		}
		cons.WithSynthesizer(analyst)
		model, err := cost.NewModel(cfg.Cost)
		if err != nil {
			return err
		}
		ctl, err := pipeline.New(engine, orch, cons, model, cfg.Pipeline)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		fmt.Printf("Analyzing %d facts and %d gaps (%s)...\n",
			len(input.Facts), len(input.Gaps), dealType)

		res, err := ctl.Execute(ctx, input)
		if err != nil {
			return err
		}
		if err := persistResult(cmd.Context(), res, input); err != nil {
			return err
		}
		printRunSummary(res)
		return nil
	},
}

// persistResult stores everything the run produced. Persistence uses a
// fresh context path so a cancelled run still records its partial
// output.
func persistResult(ctx context.Context, res *pipeline.Result, input pipeline.Input) error {
	if err := store.CreateRun(ctx, &res.Run); err != nil {
		return err
	}
	if err := store.SaveFacts(ctx, res.Run.ID, input.Facts); err != nil {
		return err
	}
	if err := store.SaveGaps(ctx, res.Run.ID, input.Gaps); err != nil {
		return err
	}
	if input.Inventory != nil {
		if err := store.SaveInventory(ctx, res.Run.ID, input.Inventory); err != nil {
			return err
		}
	}
	if err := store.SaveOverlaps(ctx, res.Run.ID, res.Overlaps); err != nil {
		return err
	}
	if err := store.SaveFindings(ctx, res.Run.ID, res.Findings); err != nil {
		return err
	}
	if err := store.SaveCostEstimates(ctx, res.Run.ID, res.CostEstimates); err != nil {
		return err
	}
	if res.TSA != nil {
		if err := store.SaveTSAEstimate(ctx, res.Run.ID, res.TSA); err != nil {
			return err
		}
	}
	if err := store.SaveDomainStatuses(ctx, res.Run.ID, res.DomainStatus); err != nil {
		return err
	}
	return store.FinishRun(ctx, &res.Run)
}

func printRunSummary(res *pipeline.Result) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Println()
	if res.Run.State == types.RunCompleted {
		fmt.Printf("%s Run %s completed\n\n", green("✓"), cyan(res.Run.ID))
	} else {
		fmt.Printf("%s Run %s incomplete (cancelled)\n\n", yellow("!"), cyan(res.Run.ID))
	}

	for _, st := range res.DomainStatus {
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

	fmt.Printf("\n  Findings: %d  Priced work items: %d\n",
		len(res.Findings), len(res.CostEstimates))
	if res.TSA != nil && res.TSA.TotalCost > 0 {
		fmt.Printf("  TSA: $%.0f/month for %d months ($%.0f total)\n",
			res.TSA.MonthlyCost, res.TSA.DurationMonths, res.TSA.TotalCost)
	}
	fmt.Println()
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func init() {
	runCmd.Flags().StringVar(&runDealType, "deal-type", "", "Deal structure: acquisition, carveout, or divestiture (required unless set in config)")
	runCmd.Flags().StringVar(&runFactsPath, "facts", "", "Facts JSONL file (default: staged facts.jsonl)")
	runCmd.Flags().StringVar(&runGapsPath, "gaps", "", "Gaps JSONL file (default: staged gaps.jsonl)")
	runCmd.Flags().StringVar(&runInvPath, "inventory", "", "Inventory summary JSON (default: staged inventory.json)")
	rootCmd.AddCommand(runCmd)
}
