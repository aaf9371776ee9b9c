package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apkscope/apkscope/pkg/apk"
	"github.com/apkscope/apkscope/pkg/models"
)

var signaturesCmd = &cobra.Command{
	Use:   "signatures [apk-file]",
	Short: "Signing schemes and certificates for one APK",
	Long: `Scan every signing scheme present in the APK (v1 JAR signatures, the
APK Signing Block's v2/v3/v3.1 entries and vendor blocks) and list the
signers with their certificates. Signatures are enumerated, not
verified.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pkg, err := apk.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		report, err := pkg.Signatures()
		if err != nil {
			return fmt.Errorf("scanning signatures: %w", err)
		}

		schemes, softErrs := apk.SignatureSection(report)
		if cfg.Output.Format == "text" {
			printSchemes(os.Stdout, schemes, softErrs)
			return nil
		}
		out := struct {
			Signatures []models.SignatureScheme `json:"signatures" yaml:"signatures"`
			Warnings   []string                 `json:"warnings,omitempty" yaml:"warnings,omitempty"`
		}{schemes, softErrs}
		return render(os.Stdout, &out, cfg.Output.Format)
	},
}

func init() {
	rootCmd.AddCommand(signaturesCmd)
}
