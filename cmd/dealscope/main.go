// dealscope analyzes a target company's IT estate against a buyer's
// during M&A technology due diligence.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oakmont/dealscope/internal/config"
	"github.com/oakmont/dealscope/internal/storage"
)

var (
	cfgPath string

	// Shared across commands, set up by the persistent pre-run.
	cfg   *config.Config
	store storage.Storage
)

var rootCmd = &cobra.Command{
	Use:   "dealscope",
	Short: "Technology due-diligence analysis for M&A deals",
	Long: `dealscope turns extracted facts about a target's and buyer's IT
estates into overlap candidates, validated findings, and deal-type-aware
cost estimates.

Typical workflow:
  dealscope init                 # create .dealscope/ and the database
  dealscope import --facts ...   # load extraction output into a run
  dealscope run --deal-type ...  # run the analysis pipeline
  dealscope status <run-id>      # per-domain completion report
  dealscope cost <run-id>        # priced work items and TSA estimate
  dealscope export <run-id>      # JSON exports for the report layer`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		store, err = storage.NewStorage(cmd.Context(), &storage.Config{Path: cfg.DatabasePath})
		if err != nil {
			return fmt.Errorf("failed to open database %s: %w", cfg.DatabasePath, err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default .dealscope/config.yaml)")
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
