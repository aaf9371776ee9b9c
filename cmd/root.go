package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apkscope/apkscope/internal/config"
	"github.com/apkscope/apkscope/internal/i18n"
	"github.com/apkscope/apkscope/pkg/models"
)

var (
	cfgFile      string
	langOverride string
	outputFormat string
	verbose      bool

	cfg *models.Config
)

var rootCmd = &cobra.Command{
	Use:   "apkscope",
	Short: "Inspect APK files: manifest, signatures, container",
	Long: `apkscope reads APK files without installing or modifying them.
It decodes the binary manifest, enumerates every signing scheme present
(v1 through v3.1 plus vendor blocks), and reports container facts.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// The environment already drove the first Init; an explicit
		// --lang wins once flags are parsed.
		if langOverride != "" {
			if err := i18n.Init(langOverride); err != nil {
				return err
			}
			applyCommandLocalization()
		}
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		if outputFormat != "" {
			cfg.Output.Format = outputFormat
		}
		if verbose {
			cfg.Output.Verbose = true
		}
		return nil
	}
}

func Execute() {
	if err := i18n.Init(os.Getenv("APKSCOPE_LANG")); err == nil {
		applyCommandLocalization()
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&langOverride, "lang", "", "interface language (en, zh)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: text, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose diagnostics")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
