package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oakmont/dealscope/internal/ingest"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the drop directory and validate extraction output on arrival",
	Long: `Watch the drop directory for extraction output. Each recognized
file (facts*.jsonl, gaps*.jsonl, inventory*.json) is validated as soon
as it lands, so malformed extraction output is caught before a run.

Press Ctrl+C to stop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(cfg.DropDir, 0755); err != nil {
			return fmt.Errorf("failed to create drop directory: %w", err)
		}

		watcher, err := ingest.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer watcher.Stop()

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		events, err := watcher.Watch(ctx, cfg.DropDir)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", cfg.DropDir, err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("Watching %s (Ctrl+C to stop)\n\n", cyan(cfg.DropDir))
		for ev := range events {
			switch ev.Kind {
			case ingest.KindFacts:
				facts, err := ingest.LoadFactsFile(ev.Path)
				if err != nil {
					fmt.Printf("%s %s: %v\n", red("✗"), ev.Path, err)
					continue
				}
				fmt.Printf("%s %s: %d valid facts\n", green("✓"), ev.Path, len(facts))
			case ingest.KindGaps:
				gaps, err := ingest.LoadGapsFile(ev.Path)
				if err != nil {
					fmt.Printf("%s %s: %v\n", red("✗"), ev.Path, err)
					continue
				}
				fmt.Printf("%s %s: %d valid gaps\n", green("✓"), ev.Path, len(gaps))
			case ingest.KindInventory:
				inv, err := ingest.LoadInventoryFile(ev.Path)
				if err != nil {
					fmt.Printf("%s %s: %v\n", red("✗"), ev.Path, err)
					continue
				}
				fmt.Printf("%s %s: %d inventory items\n", green("✓"), ev.Path, len(inv.Items))
			}
		}
		fmt.Println("\nStopped watching.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
