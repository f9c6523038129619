package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oakmont/dealscope/internal/ingest"
)

var (
	importFacts     string
	importGaps      string
	importInventory string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Validate extraction output and stage it for the next run",
	Long: `Validate facts, gaps, and inventory files from the extraction
collaborator and stage them in the drop directory under canonical names.

Every record is validated before anything is staged; one malformed line
rejects the whole file.

Example:
  dealscope import --facts target_facts.jsonl --gaps gaps.jsonl
  dealscope import --inventory inventory.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if importFacts == "" && importGaps == "" && importInventory == "" {
			return fmt.Errorf("nothing to import: pass --facts, --gaps, or --inventory")
		}
		if err := os.MkdirAll(cfg.DropDir, 0755); err != nil {
			return fmt.Errorf("failed to create drop directory: %w", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Println()

		if importFacts != "" {
			facts, err := ingest.LoadFactsFile(importFacts)
			if err != nil {
				return err
			}
			if err := stageFile(importFacts, filepath.Join(cfg.DropDir, "facts.jsonl")); err != nil {
				return err
			}
			fmt.Printf("%s Staged %d facts\n", green("✓"), len(facts))
		}
		if importGaps != "" {
			gaps, err := ingest.LoadGapsFile(importGaps)
			if err != nil {
				return err
			}
			if err := stageFile(importGaps, filepath.Join(cfg.DropDir, "gaps.jsonl")); err != nil {
				return err
			}
			fmt.Printf("%s Staged %d gaps\n", green("✓"), len(gaps))
		}
		if importInventory != "" {
			inv, err := ingest.LoadInventoryFile(importInventory)
			if err != nil {
				return err
			}
			if err := stageFile(importInventory, filepath.Join(cfg.DropDir, "inventory.json")); err != nil {
				return err
			}
			fmt.Printf("%s Staged inventory (%d items)\n", green("✓"), len(inv.Items))
		}
		fmt.Println()
		return nil
	},
}

// stageFile copies src into the drop directory. A copy, not a rename:
// the source may sit on another filesystem or belong to the caller.
func stageFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to stage %s: %w", dst, err)
	}
	return out.Close()
}

func init() {
	importCmd.Flags().StringVar(&importFacts, "facts", "", "Facts JSONL file from the extraction collaborator")
	importCmd.Flags().StringVar(&importGaps, "gaps", "", "Gaps JSONL file from the extraction collaborator")
	importCmd.Flags().StringVar(&importInventory, "inventory", "", "Inventory summary JSON file")
	rootCmd.AddCommand(importCmd)
}
