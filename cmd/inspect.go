package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/apkscope/apkscope/pkg/apk"
)

var inspectIconPath string

var inspectCmd = &cobra.Command{
	Use:   "inspect [apk-file]",
	Short: "Full inspection report for one APK",
	Long: `Inspect an APK or XAPK file and report its manifest facts, archive
facts and signing schemes. The parser chain falls back to the
androidbinary library when the native decoder rejects the file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		chain := apk.NewDefaultChain(chainLogger())
		result, err := chain.Parse(path)
		if err != nil {
			return fmt.Errorf("inspecting %s: %w", path, err)
		}

		if inspectIconPath != "" {
			if err := extractIcon(path, inspectIconPath); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: icon extraction failed: %v\n", err)
			}
		}

		if cfg.Output.Format == "text" {
			printReport(os.Stdout, result.Report)
			return nil
		}
		return render(os.Stdout, result.Report, cfg.Output.Format)
	},
}

func extractIcon(apkPath, outPath string) error {
	pkg, err := apk.Open(apkPath)
	if err != nil {
		return err
	}
	data, _, err := apk.NewIconExtractor().ExtractIcon(pkg)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0644)
}

func init() {
	inspectCmd.Flags().StringVar(&inspectIconPath, "icon", "", "write the launcher icon (normalized PNG) to this file")
	rootCmd.AddCommand(inspectCmd)
}
