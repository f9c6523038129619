package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oakmont/dealscope/internal/storage"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Write a run's JSON exports for the report layer",
	Long: `Write the run's data as JSON files:

  facts.json     the evidence base (facts and gaps)
  overlaps.json  overlap candidates keyed by domain
  findings.json  findings partitioned by variant

Example:
  dealscope export 4f8a... --out ./exports`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		runID := args[0]
		if _, err := store.GetRun(ctx, runID); err != nil {
			return err
		}
		if err := os.MkdirAll(exportDir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}

		exports := []struct {
			name  string
			write func() error
		}{
			{"facts.json", func() error {
				return writeExport(filepath.Join(exportDir, "facts.json"), func(f *os.File) error {
					return storage.ExportFacts(ctx, store, runID, f)
				})
			}},
			{"overlaps.json", func() error {
				return writeExport(filepath.Join(exportDir, "overlaps.json"), func(f *os.File) error {
					return storage.ExportOverlaps(ctx, store, runID, f)
				})
			}},
			{"findings.json", func() error {
				return writeExport(filepath.Join(exportDir, "findings.json"), func(f *os.File) error {
					return storage.ExportFindings(ctx, store, runID, f)
				})
			}},
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Println()
		for _, e := range exports {
			if err := e.write(); err != nil {
				return err
			}
			fmt.Printf("%s Wrote %s\n", green("✓"), filepath.Join(exportDir, e.name))
		}
		fmt.Println()
		return nil
	},
}

func writeExport(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "out", "exports", "Output directory for JSON files")
	rootCmd.AddCommand(exportCmd)
}
