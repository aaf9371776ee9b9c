package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/apkscope/apkscope/pkg/scanner"
)

var scanWorkers int

var scanCmd = &cobra.Command{
	Use:   "scan [directory]",
	Short: "Inspect every APK under a directory",
	Long: `Walk a directory for APK files (patterns and recursion from the
configuration) and inspect them concurrently. Per-file failures are
reported at the end without stopping the batch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving directory: %w", err)
		}
		if scanWorkers > 0 {
			cfg.Scanning.Workers = scanWorkers
		}

		log := newLogger()
		defer log.Sync()

		result, err := scanner.New(cfg, log).Scan(dir)
		if err != nil {
			return err
		}

		if cfg.Output.Format != "text" {
			if err := render(os.Stdout, result.Reports, cfg.Output.Format); err != nil {
				return err
			}
		} else {
			for _, r := range result.Reports {
				fmt.Printf("%s  %s %s (%d)  sdk %d+\n",
					r.FilePath, r.PackageID, r.VersionName, r.VersionCode, r.MinSDK)
			}
			fmt.Printf("\n%d files, %d inspected, %d failed\n",
				result.TotalFiles, result.Parsed, len(result.Errors))
		}

		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", e)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "parallel workers (0 = one per CPU)")
	rootCmd.AddCommand(scanCmd)
}
